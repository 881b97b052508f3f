package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// QueryBalance returns the balance of the address. Addresses that never
// transacted have a zero balance.
func (s *State) QueryBalance(address database.Address) uint64 {
	return s.balances.Balance(address)
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryChainLength returns the number of blocks in the chain.
func (s *State) QueryChainLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.chain)
}

// QueryBlocksByNumber returns the set of blocks based on block numbers.
// Numbers outside of the chain are left out.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := s.tip().Index

	if from == QueryLatest {
		from = latest
		to = from
	}
	if to == QueryLatest || to > latest {
		to = latest
	}
	if from == 0 {
		from = 1
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		out = append(out, copyBlock(s.chain[i-1]))
	}

	return out
}

// =============================================================================

// copyBlock returns a block that doesn't share its transactions with the
// chain.
func copyBlock(block database.Block) database.Block {
	block.Transactions = append([]database.Tx{}, block.Transactions...)
	return block
}
