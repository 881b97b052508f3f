// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Loader is the behavior the commands need from a snapshot store.
type Loader interface {
	Load() (database.Snapshot, error)
}

// Balances writes the stored balances. When an address is provided only
// that balance is written.
func Balances(w io.Writer, strg Loader, onlyAddress string) error {
	snapshot, err := strg.Load()
	if err != nil {
		return err
	}

	if len(snapshot.Chain) > 0 {
		fmt.Fprintf(w, "LatestBlockHash: %s\n\n", snapshot.Chain[len(snapshot.Chain)-1].Hash())
	}

	addresses := make([]string, 0, len(snapshot.Balances))
	for address := range snapshot.Balances {
		if onlyAddress != "" && string(address) != onlyAddress {
			continue
		}
		addresses = append(addresses, string(address))
	}
	sort.Strings(addresses)

	for _, address := range addresses {
		fmt.Fprintf(w, "Address: %s  Balance: %d\n", address, snapshot.Balances[database.Address(address)])
	}

	return nil
}
