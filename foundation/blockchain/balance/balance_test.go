package balance_test

import (
	"errors"
	"math"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/balance"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const coinbase = database.Address("0")

func TestTransactions(t *testing.T) {
	type table struct {
		name    string
		start   database.Balances
		txs     []database.Tx
		results []error
		final   database.Balances
	}

	tt := []table{
		{
			name:  "coinbase-then-transfer",
			start: nil,
			txs: []database.Tx{
				database.NewTx(coinbase, "Alice", 1000),
				database.NewTx("Alice", "Bob", 15),
			},
			results: []error{nil, nil},
			final:   database.Balances{"Alice": 985, "Bob": 15},
		},
		{
			name:  "insufficient",
			start: database.Balances{"Alice": 10},
			txs: []database.Tx{
				database.NewTx("Alice", "Bob", 11),
				database.NewTx("Carol", "Bob", 1),
				database.NewTx("Alice", "Bob", 10),
			},
			results: []error{balance.ErrInsufficientFunds, balance.ErrInsufficientFunds, nil},
			final:   database.Balances{"Alice": 0, "Bob": 10},
		},
		{
			name:  "self-transfer",
			start: database.Balances{"Alice": 10},
			txs: []database.Tx{
				database.NewTx("Alice", "Alice", 10),
				database.NewTx("Alice", "Alice", 11),
			},
			results: []error{nil, balance.ErrInsufficientFunds},
			final:   database.Balances{"Alice": 10},
		},
		{
			name:  "overflow",
			start: database.Balances{"Alice": math.MaxUint64},
			txs: []database.Tx{
				database.NewTx(coinbase, "Alice", 1),
			},
			results: []error{balance.ErrOverflow},
			final:   database.Balances{"Alice": math.MaxUint64},
		},
	}

	t.Log("Given the need to validate the transactions.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of accounts.", testID)
			{
				f := func(t *testing.T) {
					l := balance.New(coinbase, tst.start)

					for i, tx := range tst.txs {
						err := l.Apply(tx)
						if !errors.Is(err, tst.results[i]) {
							t.Fatalf("\t%s\tTest %d:\tShould get the expected result for tx[%s], got %v.", failed, testID, tx, err)
						}
						t.Logf("\t%s\tTest %d:\tShould get the expected result for tx[%s].", success, testID, tx)
					}

					if got := l.Copy(); !got.Equal(tst.final) {
						t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.final)
						t.Fatalf("\t%s\tTest %d:\tShould have correct balances.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have correct balances.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestConservation(t *testing.T) {
	l := balance.New(coinbase, nil)

	var minted uint64
	txs := []database.Tx{
		database.NewTx(coinbase, "Alice", 1000),
		database.NewTx("Alice", "Bob", 300),
		database.NewTx("Bob", "Carol", 299),
		database.NewTx("Carol", "Alice", 1000),
		database.NewTx(coinbase, "Bob", 50),
		database.NewTx("Bob", "Dave", 51),
		database.NewTx("Alice", "Dave", 701),
	}

	for _, tx := range txs {
		before := total(l.Copy())
		err := l.Apply(tx)
		after := total(l.Copy())

		switch {
		case err != nil:
			if before != after {
				t.Fatalf("Should not change the total supply on a rejected tx[%s].", tx)
			}
		case tx.IsCoinbase(coinbase):
			minted += tx.Amount
			if after != before+tx.Amount {
				t.Fatalf("Should only increase the supply by the reward for tx[%s].", tx)
			}
		default:
			if before != after {
				t.Fatalf("Should conserve the total supply for tx[%s].", tx)
			}
		}
	}

	if got := total(l.Copy()); got != minted {
		t.Logf("got: %d", got)
		t.Logf("exp: %d", minted)
		t.Fatalf("Should have a total supply equal to the minted amount.")
	}
}

func TestReplay(t *testing.T) {
	blocks := []database.Block{
		{Index: 1, Transactions: []database.Tx{}},
		{Index: 2, Transactions: []database.Tx{database.NewTx(coinbase, "Alice", 1000)}},
		{Index: 3, Transactions: []database.Tx{database.NewTx("Alice", "Bob", 15)}},
	}

	l := balance.New(coinbase, nil)
	if err := l.Replay(blocks); err != nil {
		t.Fatalf("Should be able to replay the blocks: %s", err)
	}

	if l.Balance("Alice") != 985 || l.Balance("Bob") != 15 {
		t.Fatalf("Should have the replayed balances, got %v.", l.Copy())
	}

	bad := append(blocks, database.Block{Index: 4, Transactions: []database.Tx{database.NewTx("Bob", "Alice", 16)}})
	if err := balance.New(coinbase, nil).Replay(bad); !errors.Is(err, balance.ErrInsufficientFunds) {
		t.Fatalf("Should fail to replay an overdraft, got %v.", err)
	}
}

func total(balances database.Balances) uint64 {
	var sum uint64
	for _, v := range balances {
		sum += v
	}
	return sum
}
