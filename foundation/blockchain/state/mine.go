package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
)

// errTipMoved is used internally when the chain advanced while a proof was
// being searched for.
var errTipMoved = errors.New("chain tip moved")

// =============================================================================

// SealBlock seals the transactions in the pool into a new block using the
// specified proof. The proof must solve the puzzle against the proof of the
// latest block.
func (s *State) SealBlock(proof uint64) (database.Block, error) {
	block, err := s.sealBlock(proof)
	if s.shouldShare(err) {
		s.Worker.SignalShareBlock(block)
	}

	return block, err
}

// Mine searches for the proof of the next block and seals the block with a
// reward for the miner. The search happens without holding the ledger so
// other operations can continue. When the chain moves forward during the
// search, the proof is thrown away and the search starts again.
func (s *State) Mine(ctx context.Context, miner database.Address) (database.Block, error) {
	if miner == "" {
		return database.Block{}, ErrMinerRequired
	}

	for {
		tip := s.RetrieveLatestBlock()

		s.evHandler("state: Mine: MINING: perform POW: tip[%d]", tip.Index)

		proof, err := pow.Solve(ctx, s.genesis.Difficulty, tip.Proof, s.evHandler)
		if err != nil {
			return database.Block{}, err
		}

		// Just check one more time we were not cancelled.
		if ctx.Err() != nil {
			return database.Block{}, ctx.Err()
		}

		block, err := s.sealMined(tip, miner, proof)
		if errors.Is(err, errTipMoved) {
			s.evHandler("state: Mine: MINING: tip moved: restarting search")
			continue
		}

		if s.shouldShare(err) {
			s.Worker.SignalShareBlock(block)
		}

		return block, err
	}
}

// MineNewBlock mines a block for the node's beneficiary. It is used by the
// mining worker and does nothing when the pool is empty.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	return s.Mine(ctx, s.beneficiary)
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the chain. A block that doesn't extend
// the tip is rejected and nothing changes.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: blk[%d]: hash[%s]", block.Index, block.Hash())
	defer s.evHandler("state: ProcessProposedBlock: completed")

	err := s.acceptBlock(block)
	if s.shouldShare(err) {

		// If a mining operation is running it needs to stop since the
		// block it works on is no longer the next block.
		s.Worker.SignalCancelMining()
	}

	return err
}

// =============================================================================

// sealBlock validates the proof and seals the pool under the lock.
func (s *State) sealBlock(proof uint64) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tip := s.tip()
	if !pow.IsValid(s.genesis.Difficulty, tip.Proof, proof) {
		return database.Block{}, fmt.Errorf("%w: last proof %d, proof %d", ErrInvalidProof, tip.Proof, proof)
	}

	restore := s.checkpoint()
	block := s.seal(proof)

	if err := s.persist(restore); err != nil {
		if s.strictPersistence {
			return database.Block{}, err
		}
		return block, err
	}

	return block, nil
}

// sealMined adds the reward for the miner to the pool and seals it, as long
// as the tip is still the block the proof was found for.
func (s *State) sealMined(tip database.Block, miner database.Address, proof uint64) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tip().Hash() != tip.Hash() {
		return database.Block{}, errTipMoved
	}

	s.evHandler("state: sealMined: MINING: reward[%d] to miner[%s]", s.genesis.MiningReward, miner)

	restore := s.checkpoint()

	reward := database.NewTx(s.coinbase, miner, s.genesis.MiningReward)
	if err := s.balances.Apply(reward); err != nil {
		return database.Block{}, err
	}
	s.mempool.Append(reward)

	block := s.seal(proof)

	if err := s.persist(restore); err != nil {
		if s.strictPersistence {
			return database.Block{}, err
		}
		return block, err
	}

	return block, nil
}

// seal builds the next block from the pool and adds it to the chain. The
// lock must be held and the proof already validated.
func (s *State) seal(proof uint64) database.Block {
	block := database.NewBlock(s.tip(), s.mempool.Copy(), proof, time.Now())

	s.evHandler("state: seal: blk[%d]: txs[%d]: hash[%s]", block.Index, len(block.Transactions), block.Hash())

	s.chain = append(s.chain, block)

	// The live balances already hold every pool transaction, which are now
	// all sealed.
	s.sealed.Replace(s.balances)
	s.mempool.Truncate()

	return block
}

// acceptBlock validates the proposed block against the tip and the sealed
// balances and then adds it to the chain.
func (s *State) acceptBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := block.ValidateBlock(s.tip(), s.genesis.Difficulty, s.evHandler); err != nil {
		return err
	}

	s.evHandler("state: acceptBlock: validate: blk[%d]: check: transactions apply", block.Index)

	sealed := s.sealed.Clone()
	for _, tx := range block.Transactions {
		if err := sealed.Apply(tx); err != nil {
			return fmt.Errorf("%w: tx[%s]: %w", ErrChainMismatch, tx, err)
		}
	}

	block.Transactions = append([]database.Tx{}, block.Transactions...)

	restore := s.checkpoint()

	s.chain = append(s.chain, block)
	s.sealed.Replace(sealed)

	s.evHandler("state: acceptBlock: remove sealed transactions from mempool")

	s.mempool.Remove(block.Transactions)
	s.rebuildBalances()

	return s.persist(restore)
}
