package database

import (
	"crypto/ecdsa"

	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
)

// Address represents an opaque account identifier. Addresses are produced
// by a wallet and the ledger never interprets their format.
type Address string

// PublicKeyToAddress converts the public key to an address.
func PublicKeyToAddress(pk ecdsa.PublicKey) Address {
	return Address(signature.PublicKeyToAddress(pk))
}

// =============================================================================

// Balances represents the balance of every address that has transacted.
type Balances map[Address]uint64

// Copy returns a deep copy of the balances.
func (b Balances) Copy() Balances {
	cpy := make(Balances, len(b))
	for address, value := range b {
		cpy[address] = value
	}
	return cpy
}

// Equal reports whether both sets of balances hold the same value for every
// address. A missing address counts as a zero balance.
func (b Balances) Equal(other Balances) bool {
	for address, value := range b {
		if other[address] != value {
			return false
		}
	}
	for address, value := range other {
		if b[address] != value {
			return false
		}
	}
	return true
}
