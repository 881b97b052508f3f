// Package bolt implements the ability to read and write the ledger snapshot
// to a bbolt key/value database file.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	bolt "go.etcd.io/bbolt"
)

// Names of the buckets that make up a snapshot.
var (
	chainBucket    = []byte("chain")
	balancesBucket = []byte("balances")
)

// Bolt represents the serialization implementation for reading and storing
// the snapshot in a bbolt database. The chain is keyed by the big endian
// block index and the balances by address. This implements the
// database.Storage interface.
type Bolt struct {
	db *bolt.DB
}

// New opens or creates the bbolt database file at the specified path.
func New(dbPath string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close releases the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Save replaces the chain and the balances inside a single bbolt
// transaction so both buckets always change together.
func (b *Bolt) Save(snapshot database.Snapshot) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		chain, err := recreateBucket(tx, chainBucket)
		if err != nil {
			return err
		}

		for _, block := range snapshot.Chain {
			data, err := json.Marshal(block)
			if err != nil {
				return fmt.Errorf("marshal block %d: %w", block.Index, err)
			}

			if err := chain.Put(indexKey(block.Index), data); err != nil {
				return err
			}
		}

		balances, err := recreateBucket(tx, balancesBucket)
		if err != nil {
			return err
		}

		for address, value := range snapshot.Balances {
			var v [8]byte
			binary.BigEndian.PutUint64(v[:], value)

			if err := balances.Put([]byte(address), v[:]); err != nil {
				return err
			}
		}

		return nil
	})
}

// Load reads the chain and the balances back. Missing buckets produce
// empty containers.
func (b *Bolt) Load() (database.Snapshot, error) {
	snapshot := database.Snapshot{
		Chain:    []database.Block{},
		Balances: database.Balances{},
	}

	err := b.db.View(func(tx *bolt.Tx) error {
		if chain := tx.Bucket(chainBucket); chain != nil {
			err := chain.ForEach(func(k, v []byte) error {
				var block database.Block
				if err := json.Unmarshal(v, &block); err != nil {
					return fmt.Errorf("decode block %x: %w", k, err)
				}

				snapshot.Chain = append(snapshot.Chain, block)
				return nil
			})
			if err != nil {
				return err
			}
		}

		if balances := tx.Bucket(balancesBucket); balances != nil {
			err := balances.ForEach(func(k, v []byte) error {
				if len(v) != 8 {
					return fmt.Errorf("decode balance %q: invalid length %d", k, len(v))
				}

				snapshot.Balances[database.Address(k)] = binary.BigEndian.Uint64(v)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return database.Snapshot{}, err
	}

	return snapshot, nil
}

// =============================================================================

// recreateBucket drops the named bucket if it exists and creates it again.
func recreateBucket(tx *bolt.Tx, name []byte) (*bolt.Bucket, error) {
	if tx.Bucket(name) != nil {
		if err := tx.DeleteBucket(name); err != nil {
			return nil, fmt.Errorf("delete bucket %s: %w", name, err)
		}
	}

	bucket, err := tx.CreateBucket(name)
	if err != nil {
		return nil, fmt.Errorf("create bucket %s: %w", name, err)
	}

	return bucket, nil
}

// indexKey encodes the block index so the keys sort in chain order.
func indexKey(index uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], index)
	return k[:]
}
