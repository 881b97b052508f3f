// Package storage opens the snapshot store backing a node.
package storage

import (
	"fmt"
	"path/filepath"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/bolt"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/disk"
)

// Set of storage kinds that can be opened.
const (
	KindDisk = "disk"
	KindBolt = "bolt"
)

// BoltFile is the name of the bbolt database file inside the db path.
const BoltFile = "ledger.db"

// Open opens the snapshot store of the specified kind rooted at dbPath.
func Open(kind string, dbPath string) (database.Storage, error) {
	switch kind {
	case KindDisk:
		strg, err := disk.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open disk storage: %w", err)
		}
		return strg, nil

	case KindBolt:
		strg, err := bolt.New(filepath.Join(dbPath, BoltFile))
		if err != nil {
			return nil, fmt.Errorf("open bolt storage: %w", err)
		}
		return strg, nil
	}

	return nil, fmt.Errorf("unknown storage kind %q, use %s or %s", kind, KindDisk, KindBolt)
}
