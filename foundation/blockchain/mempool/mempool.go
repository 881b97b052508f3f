// Package mempool maintains the pool of transactions accepted since the last
// block was sealed.
package mempool

import (
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Mempool represents the ordered set of transactions waiting to be sealed
// into the next block. Transactions keep the order they were accepted in.
type Mempool struct {
	pool []database.Tx
	mu   sync.RWMutex
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Append adds a transaction to the end of the pool and returns the new
// number of transactions.
func (mp *Mempool) Append(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// Copy returns the transactions in the order they were accepted.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	trans := make([]database.Tx, len(mp.pool))
	copy(trans, mp.pool)

	return trans
}

// Replace sets the content of the pool to the specified transactions.
func (mp *Mempool) Replace(trans []database.Tx) {
	cpy := make([]database.Tx, len(trans))
	copy(cpy, trans)

	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = cpy
}

// Remove takes out one pooled transaction for every transaction provided.
// Transactions have no unique id, so the first equal transaction still in
// the pool is the one removed.
func (mp *Mempool) Remove(trans []database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = Subtract(mp.pool, trans)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

// =============================================================================

// Subtract returns the transactions from the first set with one equal
// transaction removed for each transaction in the second set. The order of
// the first set is kept.
func Subtract(from []database.Tx, remove []database.Tx) []database.Tx {
	counts := make(map[database.Tx]int, len(remove))
	for _, tx := range remove {
		counts[tx]++
	}

	var out []database.Tx
	for _, tx := range from {
		if counts[tx] > 0 {
			counts[tx]--
			continue
		}
		out = append(out, tx)
	}

	return out
}
