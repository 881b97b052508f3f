// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for the known ledger addresses.
package nameservice

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of addresses for name lookup.
type NameService struct {
	addresses map[database.Address]string
	names     map[string]database.Address
}

// New constructs a name service with the addresses of the key files found
// in the folder and its sub folders. The name is the file name without the .ecdsa extension.
func New(root string) (*NameService, error) {
	ns := NameService{
		addresses: make(map[database.Address]string),
		names:     make(map[string]database.Address),
	}

	// A node without a key folder simply has no names.
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return &ns, nil
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("%s: %w", fileName, err)
		}

		address := database.PublicKeyToAddress(privateKey.PublicKey)
		name := strings.TrimSuffix(filepath.Base(fileName), ".ecdsa")

		ns.addresses[address] = name
		ns.names[name] = address

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address. Unknown addresses are
// returned as is.
func (ns *NameService) Lookup(address database.Address) string {
	name, exists := ns.addresses[address]
	if !exists {
		return string(address)
	}
	return name
}

// Resolve returns the address for a known name. A value that isn't a known
// name is treated as an address.
func (ns *NameService) Resolve(nameOrAddress string) database.Address {
	if address, exists := ns.names[nameOrAddress]; exists {
		return address
	}
	return database.Address(nameOrAddress)
}

// Copy returns a copy of the map of names and addresses.
func (ns *NameService) Copy() map[database.Address]string {
	cpy := make(map[database.Address]string, len(ns.addresses))
	for address, name := range ns.addresses {
		cpy[address] = name
	}
	return cpy
}
