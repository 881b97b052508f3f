package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/balance"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// Chain writes every stored block with its transactions.
func Chain(w io.Writer, strg Loader) error {
	snapshot, err := strg.Load()
	if err != nil {
		return err
	}

	for _, block := range snapshot.Chain {
		fmt.Fprintf(w, "Block: %d  Hash: %s  Prev: %s  Proof: %d  Time: %s\n",
			block.Index, block.Hash(), block.PreviousHash, block.Proof, time.Unix(block.Timestamp, 0).UTC().Format(time.RFC3339))

		for _, tx := range block.Transactions {
			fmt.Fprintf(w, "    Sender: %s  Recipient: %s  Amount: %d\n", tx.Sender, tx.Recipient, tx.Amount)
		}
	}

	fmt.Fprintf(w, "\nLength: %d\n", len(snapshot.Chain))

	return nil
}

// Verify validates the stored chain against the genesis settings and checks
// the stored balances match the balances recomputed from the chain.
func Verify(w io.Writer, strg Loader, gen genesis.Genesis) error {
	snapshot, err := strg.Load()
	if err != nil {
		return err
	}

	ev := func(v string, args ...any) {}
	if err := database.ValidateChain(snapshot.Chain, database.GenesisBlock(gen), gen.Difficulty, ev); err != nil {
		return err
	}

	fmt.Fprintf(w, "chain ok: %d blocks\n", len(snapshot.Chain))

	ledger := balance.New(database.Address(gen.Coinbase), nil)
	if err := ledger.Replay(snapshot.Chain); err != nil {
		return err
	}

	// The stored balances carry the pending transactions of the last save.
	// A node replaces them with the chain balances when it starts.
	recomputed := ledger.Copy()
	if !recomputed.Equal(snapshot.Balances) {
		fmt.Fprintln(w, "balances differ from the chain and will be recomputed on start")

		seen := make(map[database.Address]struct{})
		var addresses []string
		for _, bals := range []database.Balances{recomputed, snapshot.Balances} {
			for address := range bals {
				if _, exists := seen[address]; !exists {
					seen[address] = struct{}{}
					addresses = append(addresses, string(address))
				}
			}
		}
		sort.Strings(addresses)

		for _, address := range addresses {
			chain, stored := recomputed[database.Address(address)], snapshot.Balances[database.Address(address)]
			if chain != stored {
				fmt.Fprintf(w, "    Address: %s  Chain: %d  Stored: %d\n", address, chain, stored)
			}
		}
		return nil
	}

	fmt.Fprintln(w, "balances ok")

	return nil
}
