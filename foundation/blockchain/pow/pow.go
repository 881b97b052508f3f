// Package pow implements the proof of work puzzle used to seal blocks.
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// checkEvery is how many attempts are made between checks for cancellation.
const checkEvery = 1024

// IsValid reports whether the proof solves the puzzle for the last proof. The
// sha256 digest of the decimal text of lastProof followed by the decimal text
// of proof must start with difficulty zero characters in its hex form.
func IsValid(difficulty uint, lastProof uint64, proof uint64) bool {
	guess := strconv.AppendUint(nil, lastProof, 10)
	guess = strconv.AppendUint(guess, proof, 10)

	hash := sha256.Sum256(guess)
	digest := hex.EncodeToString(hash[:])

	if int(difficulty) > len(digest) {
		return false
	}

	return strings.Count(digest[:difficulty], "0") == int(difficulty)
}

// Solve searches for the smallest proof that solves the puzzle for the last
// proof. The search starts at zero and walks up one value at a time. It can
// run for a long time and stops with the context error when cancelled.
func Solve(ctx context.Context, difficulty uint, lastProof uint64, ev func(v string, args ...any)) (uint64, error) {
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	ev("pow: Solve: MINING: started: lastProof[%d]: difficulty[%d]", lastProof, difficulty)

	var attempts uint64
	for proof := uint64(0); ; proof++ {
		attempts++

		if attempts%checkEvery == 0 && ctx.Err() != nil {
			ev("pow: Solve: MINING: CANCELLED: attempts[%d]", attempts)
			return 0, ctx.Err()
		}

		if attempts%1_000_000 == 0 {
			ev("pow: Solve: MINING: attempts[%d]", attempts)
		}

		if IsValid(difficulty, lastProof, proof) {
			ev("pow: Solve: MINING: SOLVED: proof[%d]: attempts[%d]", proof, attempts)
			return proof, nil
		}
	}
}
