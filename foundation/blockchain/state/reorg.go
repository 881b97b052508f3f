package state

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/balance"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/mempool"
)

// ReplaceChain replaces the local chain with a competing chain when the
// competing chain is longer and valid from the local genesis block to its
// tip. Balances are recomputed by replaying every block. Transactions sealed
// only on the abandoned blocks go back to the pool.
func (s *State) ReplaceChain(blocks []database.Block) error {
	s.evHandler("state: ReplaceChain: started: blocks[%d]", len(blocks))
	defer s.evHandler("state: ReplaceChain: completed")

	err := s.replaceChain(blocks)
	if s.shouldShare(err) {
		s.Worker.SignalCancelMining()
	}

	return err
}

// Resync asks the worker to sync with the known peers in the background. It
// is used when a peer proposed a block that shows this node is behind. Only
// one resync runs at a time and no mining is done while it runs.
func (s *State) Resync() {
	if !s.resyncing.CompareAndSwap(false, true) {
		s.evHandler("state: Resync: already running")
		return
	}

	s.resyncWG.Add(1)
	go func() {
		s.evHandler("state: Resync: started: *****************************")
		defer func() {
			s.resyncing.Store(false)
			s.evHandler("state: Resync: completed: *****************************")
			s.resyncWG.Done()
		}()

		s.Worker.Sync()
	}()
}

// =============================================================================

// replaceChain performs the validation and the swap under the lock.
func (s *State) replaceChain(blocks []database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(blocks) <= len(s.chain) {
		return fmt.Errorf("%w: chain is not longer, got %d, have %d", ErrChainMismatch, len(blocks), len(s.chain))
	}

	if err := database.ValidateChain(blocks, s.genesisBlock, s.genesis.Difficulty, s.evHandler); err != nil {
		return err
	}

	sealed := balance.New(s.coinbase, nil)
	if err := sealed.Replay(blocks); err != nil {
		return fmt.Errorf("%w: %w", ErrChainMismatch, err)
	}

	chain := make([]database.Block, len(blocks))
	for i, block := range blocks {
		block.Transactions = append([]database.Tx{}, block.Transactions...)
		chain[i] = block
	}

	fork := forkIndex(s.chain, chain)
	s.evHandler("state: replaceChain: fork at height[%d]: dropping[%d]: adding[%d]", fork, len(s.chain)-fork, len(chain)-fork)

	// Rewards from the abandoned blocks are not given back.
	var orphaned []database.Tx
	for _, block := range s.chain[fork:] {
		for _, tx := range block.Transactions {
			if !tx.IsCoinbase(s.coinbase) {
				orphaned = append(orphaned, tx)
			}
		}
	}

	var adopted []database.Tx
	for _, block := range chain[fork:] {
		adopted = append(adopted, block.Transactions...)
	}

	pool := mempool.Subtract(append(orphaned, s.mempool.Copy()...), adopted)

	restore := s.checkpoint()

	s.chain = chain
	s.sealed.Replace(sealed)
	s.mempool.Replace(pool)
	s.rebuildBalances()

	return s.persist(restore)
}

// forkIndex returns the number of leading blocks both chains share.
func forkIndex(local []database.Block, remote []database.Block) int {
	var i int
	for i < len(local) && i < len(remote) && local[i].Hash() == remote[i].Hash() {
		i++
	}
	return i
}
