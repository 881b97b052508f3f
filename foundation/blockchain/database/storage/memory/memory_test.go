package memory_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

func Test_RoundTrip(t *testing.T) {
	exp := database.Snapshot{
		Chain:    []database.Block{database.GenesisBlock(genesis.Default())},
		Balances: database.Balances{"Alice": 10},
	}

	m := memory.New()
	if err := m.Save(exp); err != nil {
		t.Fatalf("Should be able to save: %s", err)
	}

	// Mutating the saved value must not change what is stored.
	exp.Balances["Alice"] = 99

	got, err := m.Load()
	if err != nil {
		t.Fatalf("Should be able to load: %s", err)
	}

	if got.Balances["Alice"] != 10 {
		t.Logf("got: %d", got.Balances["Alice"])
		t.Logf("exp: %d", 10)
		t.Fatalf("Should hold a copy of the snapshot.")
	}

	exp.Balances["Alice"] = 10
	if !reflect.DeepEqual(got, exp) {
		t.Fatalf("Should load back the same snapshot.")
	}
}

func Test_FailSaves(t *testing.T) {
	m := memory.New()
	m.FailSaves(true)

	if err := m.Save(database.Snapshot{}); !errors.Is(err, memory.ErrSaveFailed) {
		t.Fatalf("Should fail to save, got %v.", err)
	}

	if m.Saves() != 0 {
		t.Fatalf("Should not count a failed save.")
	}
}
