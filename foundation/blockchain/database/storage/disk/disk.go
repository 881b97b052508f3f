// Package disk implements the ability to read and write the ledger snapshot
// to disk as two json files.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Names of the two artifacts that make up a snapshot.
const (
	ChainFile    = "chain.json"
	BalancesFile = "balances.json"
)

// Disk represents the serialization implementation for reading and storing
// the snapshot on disk. The chain and the balances are stored in their own
// file inside the same directory. This implements the database.Storage
// interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since the files are
// written and immediately closed on every save.
func (d *Disk) Close() error {
	return nil
}

// Save writes the chain and the balances to disk. Both files are first
// written to temporary files and then renamed over the previous version so
// a crash never leaves a partially written file behind.
func (d *Disk) Save(snapshot database.Snapshot) error {
	chain := snapshot.Chain
	if chain == nil {
		chain = []database.Block{}
	}

	balances := snapshot.Balances
	if balances == nil {
		balances = database.Balances{}
	}

	// Marshal both artifacts before touching disk in a more human
	// readable format.
	chainData, err := json.MarshalIndent(chain, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chain: %w", err)
	}

	balData, err := json.MarshalIndent(balances, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal balances: %w", err)
	}

	chainTmp, err := d.writeTemp(ChainFile, chainData)
	if err != nil {
		return err
	}

	balTmp, err := d.writeTemp(BalancesFile, balData)
	if err != nil {
		os.Remove(chainTmp)
		return err
	}

	// The chain is renamed first since the balances can always be
	// recomputed from the chain.
	if err := os.Rename(chainTmp, d.getPath(ChainFile)); err != nil {
		os.Remove(chainTmp)
		os.Remove(balTmp)
		return fmt.Errorf("rename chain: %w", err)
	}

	if err := os.Rename(balTmp, d.getPath(BalancesFile)); err != nil {
		os.Remove(balTmp)
		return fmt.Errorf("rename balances: %w", err)
	}

	return nil
}

// Load reads the chain and the balances from disk. Missing files produce
// empty containers. A file that exists but can't be decoded is an error.
func (d *Disk) Load() (database.Snapshot, error) {
	snapshot := database.Snapshot{
		Chain:    []database.Block{},
		Balances: database.Balances{},
	}

	if err := d.readFile(ChainFile, &snapshot.Chain); err != nil {
		return database.Snapshot{}, err
	}

	if err := d.readFile(BalancesFile, &snapshot.Balances); err != nil {
		return database.Snapshot{}, err
	}

	return snapshot, nil
}

// =============================================================================

// readFile decodes the named artifact into the value. A file that doesn't
// exist leaves the value untouched.
func (d *Disk) readFile(name string, value any) error {
	f, err := os.Open(d.getPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(value); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	return nil
}

// writeTemp writes the data to a temporary file next to the named artifact
// and returns the path of the temporary file.
func (d *Disk) writeTemp(name string, data []byte) (string, error) {
	f, err := os.CreateTemp(d.dbPath, name+".*.tmp")
	if err != nil {
		return "", err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("sync %s: %w", name, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}

// getPath forms the path to the specified artifact.
func (d *Disk) getPath(name string) string {
	return filepath.Join(d.dbPath, name)
}
