// Package memory implements the ability to read and write the ledger snapshot
// to memory.
package memory

import (
	"errors"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// ErrSaveFailed is returned by Save after a call to FailSaves.
var ErrSaveFailed = errors.New("memory: save failed")

// Memory represents the serialization implementation for reading and storing
// the snapshot in memory. This implements the database.Storage interface.
type Memory struct {
	mu       sync.RWMutex
	snapshot database.Snapshot
	saves    int
	fail     bool
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{
		snapshot: database.Snapshot{
			Chain:    []database.Block{},
			Balances: database.Balances{},
		},
	}
}

// NewWithSnapshot constructs a Memory value that already holds the
// specified snapshot.
func NewWithSnapshot(snapshot database.Snapshot) *Memory {
	return &Memory{
		snapshot: snapshot.Copy(),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Save stores a copy of the snapshot in memory.
func (m *Memory) Save(snapshot database.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return ErrSaveFailed
	}

	m.snapshot = snapshot.Copy()
	m.saves++

	return nil
}

// Load returns a copy of the last saved snapshot.
func (m *Memory) Load() (database.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshot.Copy(), nil
}

// FailSaves makes every following call to Save fail when set to true.
func (m *Memory) FailSaves(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fail = fail
}

// Saves returns the number of successful saves.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.saves
}
