package mempool_test

import (
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestCRUD(t *testing.T) {
	type table struct {
		name   string
		txs    []database.Tx
		remove []database.Tx
		left   []database.Tx
	}

	tt := []table{
		{
			name: "basic",
			txs: []database.Tx{
				database.NewTx("0", "Alice", 1000),
				database.NewTx("Alice", "Bob", 15),
				database.NewTx("Alice", "Bob", 15),
				database.NewTx("Bob", "Carol", 5),
			},
			remove: []database.Tx{
				database.NewTx("Alice", "Bob", 15),
				database.NewTx("Dave", "Bob", 1),
			},
			left: []database.Tx{
				database.NewTx("0", "Alice", 1000),
				database.NewTx("Alice", "Bob", 15),
				database.NewTx("Bob", "Carol", 5),
			},
		},
	}

	t.Log("Given the need to validate mempool api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of transaction.", testID)
			{
				f := func(t *testing.T) {
					mp := mempool.New()

					for i, tx := range tst.txs {
						if n := mp.Append(tx); n != i+1 {
							t.Fatalf("\t%s\tTest %d:\tShould be able to add new transaction, got count %d.", failed, testID, n)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to add new transactions.", success, testID)

					for i, tx := range mp.Copy() {
						if tx != tst.txs[i] {
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tx)
							t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.txs[i])
							t.Fatalf("\t%s\tTest %d:\tShould keep the accepted order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould keep the accepted order.", success, testID)

					mp.Remove(tst.remove)
					got := mp.Copy()
					if len(got) != len(tst.left) {
						t.Fatalf("\t%s\tTest %d:\tShould remove one transaction per match, got %d left.", failed, testID, len(got))
					}
					for i, tx := range got {
						if tx != tst.left[i] {
							t.Fatalf("\t%s\tTest %d:\tShould keep the order after a remove.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to remove transactions.", success, testID)

					mp.Truncate()
					if mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to truncate mempool.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to truncate mempool.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestCopyIsolation(t *testing.T) {
	mp := mempool.New()
	mp.Append(database.NewTx("Alice", "Bob", 1))

	cpy := mp.Copy()
	cpy[0].Amount = 99

	if mp.Copy()[0].Amount != 1 {
		t.Fatalf("Should not let a copy change the pool.")
	}
}
