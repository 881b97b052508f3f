// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// Default values used when the genesis file leaves a setting out.
const (
	DefaultDifficulty   = 4
	DefaultMiningReward = 1000
	DefaultProof        = 100
	DefaultCoinbase     = "0"
)

// DefaultDate is the timestamp recorded in the genesis block. Every node must
// use the same date to produce the same genesis hash.
var DefaultDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`          // Timestamp of the genesis block.
	Difficulty   uint      `json:"difficulty"`    // Number of leading hex zeros the proof digest needs.
	MiningReward uint64    `json:"mining_reward"` // Reward credited to the miner of a block.
	Proof        uint64    `json:"proof"`         // Seed proof stored in the genesis block.
	Coinbase     string    `json:"coinbase"`      // Sender value that marks a reward transaction.
}

// Default returns the genesis settings used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:         DefaultDate,
		Difficulty:   DefaultDifficulty,
		MiningReward: DefaultMiningReward,
		Proof:        DefaultProof,
		Coinbase:     DefaultCoinbase,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Settings missing from the file
// keep their default. A difficulty of 0 or an empty coinbase can't run a
// ledger and is an error.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if genesis.Difficulty == 0 {
		return Genesis{}, errors.New("genesis: difficulty must be at least 1")
	}
	if genesis.Coinbase == "" {
		return Genesis{}, errors.New("genesis: coinbase is required")
	}

	return genesis, nil
}
