// Package database handles the data model of the ledger and the lower level
// support for persisting the chain and the balances.
package database

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the ledger snapshot.
type Storage interface {
	Save(snapshot Snapshot) error
	Load() (Snapshot, error)
	Close() error
}

// Snapshot represents the chain and the balance table written together as
// one logical unit.
type Snapshot struct {
	Chain    []Block
	Balances Balances
}

// Copy returns a deep copy of the snapshot so a storage implementation
// doesn't share memory with the ledger.
func (s Snapshot) Copy() Snapshot {
	chain := make([]Block, len(s.Chain))
	for i, block := range s.Chain {
		trans := make([]Tx, len(block.Transactions))
		copy(trans, block.Transactions)
		block.Transactions = trans
		chain[i] = block
	}

	balances := s.Balances.Copy()
	if balances == nil {
		balances = make(Balances)
	}

	return Snapshot{
		Chain:    chain,
		Balances: balances,
	}
}
