package state

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// NewTransaction applies the transaction to the balances and adds it to the
// pool. Balances change as soon as the transaction is accepted, before it is
// sealed into a block. The transaction is shared with the known peers and
// the index of the block it will land in is returned.
//
// A persistence error is returned along with the index when the ledger was
// changed anyway.
func (s *State) NewTransaction(tx database.Tx) (uint64, error) {
	tx, index, err := s.addTransaction(tx)
	if s.shouldShare(err) {
		s.Worker.SignalShareTx(tx)
	}

	return index, err
}

// SubmitWalletTransaction accepts a transaction from a wallet for inclusion.
func (s *State) SubmitWalletTransaction(tx database.Tx) (uint64, error) {
	if err := s.validateTransaction(tx); err != nil {
		return 0, err
	}

	index, err := s.NewTransaction(tx)
	if s.shouldShare(err) {
		s.Worker.SignalStartMining()
	}

	return index, err
}

// SubmitNodeTransaction accepts a transaction shared by another node. The
// transaction is not shared again.
func (s *State) SubmitNodeTransaction(tx database.Tx) (uint64, error) {
	if err := s.validateTransaction(tx); err != nil {
		return 0, err
	}

	_, index, err := s.addTransaction(tx)
	if s.shouldShare(err) {
		s.Worker.SignalStartMining()
	}

	return index, err
}

// =============================================================================

// validateTransaction checks the transaction can be accepted from outside
// the node. Rewards are only created by mining. A signature, when present,
// must belong to the sender.
func (s *State) validateTransaction(tx database.Tx) error {
	if tx.IsCoinbase(s.coinbase) {
		return fmt.Errorf("%w: %s", ErrCoinbaseNotAllowed, tx.Sender)
	}

	if tx.Sender == "" || tx.Recipient == "" {
		return fmt.Errorf("%w: sender and recipient are required: tx[%s]", ErrInvalidTransaction, tx)
	}

	if tx.Signature == "" {
		if s.requireSignature {
			return fmt.Errorf("%w: signature is required", ErrInvalidSignature)
		}
		return nil
	}

	from, err := tx.FromAddress()
	if err != nil {
		return err
	}

	if from != tx.Sender {
		return fmt.Errorf("%w: signed by %s, sender is %s", ErrInvalidSignature, from, tx.Sender)
	}

	return nil
}

// addTransaction runs the hook, applies the transaction and adds it to the
// pool. The transaction that was stored is returned.
func (s *State) addTransaction(tx database.Tx) (database.Tx, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: addTransaction: started: tx[%s]", tx)
	defer s.evHandler("state: addTransaction: completed")

	if s.txHook != nil && !tx.IsCoinbase(s.coinbase) {
		rewritten, err := s.txHook(tx)
		if err != nil {
			return database.Tx{}, 0, err
		}

		// A rewritten transaction is no longer what the sender signed.
		if rewritten.Unsigned() != tx.Unsigned() {
			s.evHandler("state: addTransaction: hook rewrote tx[%s] to tx[%s]", tx, rewritten)
			rewritten.Signature = ""
		}
		tx = rewritten
	}

	restore := s.checkpoint()

	if err := s.balances.Apply(tx); err != nil {
		return database.Tx{}, 0, err
	}
	s.mempool.Append(tx)

	index := s.tip().Index + 1
	if err := s.persist(restore); err != nil {
		if s.strictPersistence {
			return database.Tx{}, 0, err
		}
		return tx, index, err
	}

	return tx, index, nil
}
