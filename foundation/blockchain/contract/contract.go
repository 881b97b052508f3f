// Package contract provides the typed transaction rules a node can run
// against every transaction before it is applied to the ledger. Rules are
// selected by kind and never execute caller supplied code.
package contract

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// ErrRejected is returned when a rule refuses a transaction.
var ErrRejected = errors.New("transaction rejected by contract")

// Set of rule kinds that can be constructed by name.
const (
	KindRedirectAbove = "redirect_above"
	KindCapAmount     = "cap_amount"
)

// Rule represents a conditional rewrite of a transaction.
type Rule interface {
	Kind() string
	Apply(tx database.Tx) (database.Tx, error)
}

// New constructs the rule of the specified kind.
func New(kind string, value uint64) (Rule, error) {
	switch kind {
	case KindRedirectAbove:
		return RedirectAbove{Threshold: value}, nil
	case KindCapAmount:
		return CapAmount{Max: value}, nil
	}

	return nil, fmt.Errorf("unknown contract kind %q", kind)
}

// =============================================================================

// RedirectAbove sends a transaction back to its sender when the amount is
// larger than the threshold.
type RedirectAbove struct {
	Threshold uint64
}

// Kind implements the Rule interface.
func (RedirectAbove) Kind() string {
	return KindRedirectAbove
}

// Apply implements the Rule interface.
func (r RedirectAbove) Apply(tx database.Tx) (database.Tx, error) {
	if tx.Amount > r.Threshold {
		tx.Recipient = tx.Sender
	}

	return tx, nil
}

// CapAmount refuses any transaction moving more than the maximum.
type CapAmount struct {
	Max uint64
}

// Kind implements the Rule interface.
func (CapAmount) Kind() string {
	return KindCapAmount
}

// Apply implements the Rule interface.
func (c CapAmount) Apply(tx database.Tx) (database.Tx, error) {
	if tx.Amount > c.Max {
		return database.Tx{}, fmt.Errorf("%w: %s: amount %d is over the cap %d", ErrRejected, c.Kind(), tx.Amount, c.Max)
	}

	return tx, nil
}

// =============================================================================

// Rules is an ordered set of rules applied one after the other.
type Rules []Rule

// Apply runs every rule in order. The output of one rule is the input of
// the next.
func (rs Rules) Apply(tx database.Tx) (database.Tx, error) {
	for _, r := range rs {
		var err error
		if tx, err = r.Apply(tx); err != nil {
			return database.Tx{}, err
		}
	}

	return tx, nil
}

// Hook returns the rules as a transaction hook for the ledger. It returns
// nil when there are no rules so the ledger can skip the call.
func (rs Rules) Hook() func(database.Tx) (database.Tx, error) {
	if len(rs) == 0 {
		return nil
	}

	return rs.Apply
}
