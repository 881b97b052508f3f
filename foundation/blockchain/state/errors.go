package state

import (
	"errors"

	"github.com/ardanlabs/powledger/foundation/blockchain/balance"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
)

// Set of error variables the ledger can return. Block validation and balance
// errors come from the packages that detect them.
var (
	ErrInsufficientFunds = balance.ErrInsufficientFunds
	ErrOverflow          = balance.ErrOverflow
	ErrInvalidProof      = database.ErrInvalidProof
	ErrChainMismatch     = database.ErrChainMismatch
	ErrChainForked       = database.ErrChainForked
	ErrInvalidSignature  = signature.ErrInvalidSignature

	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrPersistence        = errors.New("ledger snapshot not persisted")
	ErrPeerUnreachable    = errors.New("peer unreachable")
	ErrCoinbaseNotAllowed = errors.New("coinbase sender not allowed")
	ErrNoTransactions     = errors.New("no transactions in mempool")
	ErrMinerRequired      = errors.New("miner address required")
)
