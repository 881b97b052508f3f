package worker

// Sync updates the peer list and picks up a longer chain from any peer that
// has one. Peer mempools are not pulled since transactions carry no identity
// and the same transaction would be applied twice.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: WARNING: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// If this peer has a longer chain, it replaces ours when it is valid.
		if peerStatus.LatestBlockNumber > w.state.RetrieveLatestBlock().Index {
			w.evHandler("worker: sync: retrievePeerChain: %s: latestBlockNumber[%d]", pr.Host, peerStatus.LatestBlockNumber)

			blocks, err := w.state.NetRequestPeerChain(pr)
			if err != nil {
				w.evHandler("worker: sync: retrievePeerChain: %s: WARNING: %s", pr.Host, err)
				continue
			}

			if err := w.state.ReplaceChain(blocks); err != nil {
				w.evHandler("worker: sync: replaceChain: %s: ERROR: %s", pr.Host, err)
			}
		}
	}
}
