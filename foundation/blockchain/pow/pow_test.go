package pow_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func digest(lastProof, proof uint64) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%d%d", lastProof, proof)))
	return hex.EncodeToString(hash[:])
}

func Test_Solve(t *testing.T) {
	type table struct {
		name       string
		difficulty uint
		lastProof  uint64
	}

	tt := []table{
		{name: "genesis-proof", difficulty: 4, lastProof: 100},
		{name: "zero", difficulty: 4, lastProof: 0},
		{name: "easy", difficulty: 2, lastProof: 12345},
	}

	t.Log("Given the need to solve the proof of work puzzle.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling last proof %d.", testID, tst.lastProof)
			{
				f := func(t *testing.T) {
					proof, err := pow.Solve(context.Background(), tst.difficulty, tst.lastProof, nil)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to solve: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to solve.", success, testID)

					want := strings.Repeat("0", int(tst.difficulty))
					if d := digest(tst.lastProof, proof); !strings.HasPrefix(d, want) {
						t.Fatalf("\t%s\tTest %d:\tShould produce a digest with the prefix, got %s.", failed, testID, d)
					}
					t.Logf("\t%s\tTest %d:\tShould produce a digest with the prefix.", success, testID)

					if !pow.IsValid(tst.difficulty, tst.lastProof, proof) {
						t.Fatalf("\t%s\tTest %d:\tShould be valid.", failed, testID)
					}

					for p := uint64(0); p < proof; p++ {
						if pow.IsValid(tst.difficulty, tst.lastProof, p) {
							t.Fatalf("\t%s\tTest %d:\tShould be the minimal proof, %d is smaller.", failed, testID, p)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be the minimal proof.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_IsValidMatchesDigest(t *testing.T) {
	for proof := uint64(0); proof < 5000; proof++ {
		exp := strings.HasPrefix(digest(7, proof), "00")
		if got := pow.IsValid(2, 7, proof); got != exp {
			t.Fatalf("Should agree with the digest for proof %d, got %v, exp %v.", proof, got, exp)
		}
	}
}

func Test_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A difficulty this high can't be solved in a test run.
	_, err := pow.Solve(ctx, 64, 100, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Should stop with the context error, got %v.", err)
	}
}

func Test_KnownProof(t *testing.T) {
	proof, err := pow.Solve(context.Background(), 4, 100, nil)
	if err != nil {
		t.Fatalf("Should be able to solve: %s", err)
	}

	// Nodes running a different implementation of the same puzzle pick this
	// value for the default genesis proof.
	const exp = 35293
	if proof != exp {
		t.Logf("got: %d", proof)
		t.Logf("exp: %d", exp)
		t.Fatalf("Should find the known proof for the genesis proof.")
	}
}
