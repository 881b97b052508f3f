package database

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
)

// Tx is the transactional information between two parties. The fields are
// declared in lexicographic order of their json keys so the encoding is the
// canonical form used for block hashing.
type Tx struct {
	Amount    uint64  `json:"amount"`              // Value moved from the sender to the recipient.
	Recipient Address `json:"recipient"`           // Account receiving the value.
	Sender    Address `json:"sender"`              // Account paying the value, or the coinbase sentinel.
	Signature string  `json:"signature,omitempty"` // Optional proof the sender authorized the transaction.
}

// NewTx constructs a new unsigned transaction.
func NewTx(sender Address, recipient Address, amount uint64) Tx {
	return Tx{
		Amount:    amount,
		Recipient: recipient,
		Sender:    sender,
	}
}

// IsCoinbase reports whether the transaction is a reward transaction for
// the specified coinbase sentinel.
func (tx Tx) IsCoinbase(coinbase Address) bool {
	return tx.Sender == coinbase
}

// Unsigned returns the transaction without the signature. This is the value
// that gets signed.
func (tx Tx) Unsigned() Tx {
	tx.Signature = ""
	return tx
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (Tx, error) {
	sig, err := signature.Sign(tx.Unsigned(), privateKey)
	if err != nil {
		return Tx{}, err
	}

	tx.Signature = sig
	return tx, nil
}

// FromAddress extracts the address of the account that signed the
// transaction.
func (tx Tx) FromAddress() (Address, error) {
	address, err := signature.FromAddress(tx.Unsigned(), tx.Signature)
	if err != nil {
		return "", err
	}

	return Address(address), nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%d", tx.Sender, tx.Recipient, tx.Amount)
}
