package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

// RegisterPeer canonicalizes the peer location and adds it to the known
// peers. It reports false when the peer was already known or is this node.
func (s *State) RegisterPeer(address string) (bool, error) {
	host, err := peer.Canonical(address)
	if err != nil {
		return false, err
	}

	return s.addKnownPeer(peer.New(host)), nil
}

// RegisterPeers registers a list of peer locations. Every location is
// checked before any is added, so an invalid entry leaves the known peers
// untouched. The number of peers that were new is returned.
func (s *State) RegisterPeers(addresses []string) (int, error) {
	hosts := make([]string, len(addresses))
	for i, address := range addresses {
		host, err := peer.Canonical(address)
		if err != nil {
			return 0, err
		}
		hosts[i] = host
	}

	var added int
	for _, host := range hosts {
		if s.addKnownPeer(peer.New(host)) {
			added++
		}
	}

	return added, nil
}

// AddKnownPeer provides the ability to add a new peer. The host is stored in
// its canonical form and a host that can't be canonicalized is dropped.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	host, err := peer.Canonical(pr.Host)
	if err != nil {
		s.evHandler("state: AddKnownPeer: WARNING: dropping peer[%s]: %s", pr.Host, err)
		return false
	}

	return s.addKnownPeer(peer.New(host))
}

// RemoveKnownPeer provides the ability to remove a peer.
func (s *State) RemoveKnownPeer(pr peer.Peer) {
	if host, err := peer.Canonical(pr.Host); err == nil {
		pr = peer.New(host)
	}

	s.knownPeers.Remove(pr)
}

// =============================================================================

// addKnownPeer adds a peer already in canonical form.
func (s *State) addKnownPeer(pr peer.Peer) bool {
	if pr.Match(s.host) {
		return false
	}

	if !s.knownPeers.Add(pr) {
		return false
	}

	s.evHandler("state: AddKnownPeer: added peer[%s]", pr.Host)
	return true
}
