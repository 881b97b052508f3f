package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// client is used for all node to node calls. A peer that doesn't answer in
// time is treated as unreachable.
var client = http.Client{
	Timeout: 10 * time.Second,
}

// =============================================================================

// NetSendTxToPeers shares a new transaction with the known peers. Every peer
// is contacted independently. A failure is logged and doesn't stop the
// delivery to the other peers.
func (s *State) NetSendTxToPeers(tx database.Tx) {
	s.evHandler("state: NetSendTxToPeers: started: tx[%s]", tx)
	defer s.evHandler("state: NetSendTxToPeers: completed")

	// CORE NOTE: Bitcoin does not send the full transaction immediately to save
	// on bandwidth. Transactions here have no identity of their own, so the
	// full transaction is always sent.
	s.sendToPeers("NetSendTxToPeers", "/tx/submit", tx)
}

// NetSendBlockToPeers takes the new mined block and sends it to all known
// peers. Every peer is contacted independently.
func (s *State) NetSendBlockToPeers(block database.Block) {
	s.evHandler("state: NetSendBlockToPeers: started: blk[%d]", block.Index)
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	s.sendToPeers("NetSendBlockToPeers", "/block/propose", block)
}

// NetRequestPeerStatus looks for new nodes on the blockchain by asking
// known nodes for their peer list and chain height.
func (s *State) NetRequestPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := send(http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, fmt.Errorf("%w: %s: %w", ErrPeerUnreachable, pr.Host, err)
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-blknum[%d]: peer-list[%v]", pr.Host, ps.LatestBlockNumber, ps.KnownPeers)

	return ps, nil
}

// NetRequestPeerChain asks the peer for its full chain.
func (s *State) NetRequestPeerChain(pr peer.Peer) ([]database.Block, error) {
	s.evHandler("state: NetRequestPeerChain: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestPeerChain: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, pr.Host))

	var blocks []database.Block
	if err := send(http.MethodGet, url, nil, &blocks); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPeerUnreachable, pr.Host, err)
	}

	s.evHandler("state: NetRequestPeerChain: found blocks[%d]", len(blocks))

	return blocks, nil
}

// NetRequestAddPeer lets the peer know this node is available.
func (s *State) NetRequestAddPeer(pr peer.Peer) error {
	s.evHandler("state: NetRequestAddPeer: started: %s", pr.Host)
	defer s.evHandler("state: NetRequestAddPeer: completed: %s", pr.Host)

	url := fmt.Sprintf("%s/peers/register", fmt.Sprintf(baseURL, pr.Host))

	nodes := struct {
		Nodes []string `json:"nodes"`
	}{
		Nodes: []string{s.host},
	}

	if err := send(http.MethodPost, url, nodes, nil); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPeerUnreachable, pr.Host, err)
	}

	return nil
}

// =============================================================================

// sendToPeers posts the value to the path on every known peer at the same
// time and waits for all of them to answer or fail.
func (s *State) sendToPeers(op string, path string, value any) {
	peers := s.RetrieveKnownPeers()

	var wg sync.WaitGroup
	wg.Add(len(peers))

	for _, pr := range peers {
		go func() {
			defer wg.Done()

			url := fmt.Sprintf(baseURL, pr.Host) + path
			if err := send(http.MethodPost, url, value, nil); err != nil {
				err = fmt.Errorf("%w: %s: %w", ErrPeerUnreachable, pr.Host, err)
				s.evHandler("state: %s: WARNING: %s", op, err)
				return
			}

			s.evHandler("state: %s: sent to peer[%s]", op, pr.Host)
		}()
	}

	wg.Wait()
}

// send is a helper function to send an HTTP request to a node.
func send(method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader

	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("status %d: %w", resp.StatusCode, errors.New(strings.TrimSpace(string(msg))))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
