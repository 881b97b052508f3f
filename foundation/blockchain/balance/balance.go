// Package balance maintains account balances in memory.
package balance

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Set of error variables for applying transactions.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverflow          = errors.New("balance overflow")
)

// Ledger represents the data representation to maintain address balances.
// Balances only change through Apply.
type Ledger struct {
	coinbase database.Address
	sheet    map[database.Address]uint64
	mu       sync.RWMutex
}

// New constructs a new balance ledger for use. The coinbase address marks
// reward transactions. A starting set of balances can be provided, usually
// from a snapshot.
func New(coinbase database.Address, balances database.Balances) *Ledger {
	l := Ledger{
		coinbase: coinbase,
		sheet:    make(map[database.Address]uint64),
	}

	if balances != nil {
		l.Reset(balances)
	}

	return &l
}

// Reset takes the specified balances and resets the ledger.
func (l *Ledger) Reset(balances database.Balances) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sheet = make(map[database.Address]uint64)
	for address, value := range balances {
		l.sheet[address] = value
	}
}

// Replace updates the ledger with the balances of another ledger.
func (l *Ledger) Replace(other *Ledger) {
	balances := other.Copy()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sheet = balances
}

// Clone makes a copy of the current ledger.
func (l *Ledger) Clone() *Ledger {
	return New(l.coinbase, l.Copy())
}

// Copy makes a copy of the current balances but returns the raw data.
func (l *Ledger) Copy() database.Balances {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balances := make(database.Balances, len(l.sheet))
	for address, value := range l.sheet {
		balances[address] = value
	}
	return balances
}

// Balance returns the balance for the address. Unseen addresses have a
// zero balance.
func (l *Ledger) Balance(address database.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.sheet[address]
}

// Apply performs the business logic for applying a transaction to the
// ledger. A coinbase transaction only credits the recipient. Any other
// transaction is rejected before anything changes when the sender can't
// cover the amount.
func (l *Ledger) Apply(tx database.Tx) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	to := l.sheet[tx.Recipient]

	if tx.IsCoinbase(l.coinbase) {
		if to > math.MaxUint64-tx.Amount {
			return fmt.Errorf("%w: recipient %s", ErrOverflow, tx.Recipient)
		}

		l.sheet[tx.Recipient] = to + tx.Amount
		return nil
	}

	from := l.sheet[tx.Sender]
	if from < tx.Amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, tx.Sender, from, tx.Amount)
	}

	// Sending to yourself doesn't change anything.
	if tx.Sender == tx.Recipient {
		l.sheet[tx.Sender] = from
		return nil
	}

	if to > math.MaxUint64-tx.Amount {
		return fmt.Errorf("%w: recipient %s", ErrOverflow, tx.Recipient)
	}

	l.sheet[tx.Sender] = from - tx.Amount
	l.sheet[tx.Recipient] = to + tx.Amount

	return nil
}

// Replay applies every transaction of every block in order. It stops at the
// first transaction that can't be applied.
func (l *Ledger) Replay(blocks []database.Block) error {
	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if err := l.Apply(tx); err != nil {
				return fmt.Errorf("block %d: tx[%s]: %w", block.Index, tx, err)
			}
		}
	}

	return nil
}
