// This program performs administrative tasks against a node's ledger
// snapshot while the node is stopped.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/powledger/app/tooling/admin/commands"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args  conf.Args
		State struct {
			DBPath      string `conf:"default:zblock/miner1"`
			Storage     string `conf:"default:disk,help:disk or bolt"`
			GenesisPath string `conf:"default:zblock/genesis.json,help:genesis file with the defaults used when empty"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "proof-of-work ledger admin",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen := genesis.Default()
	if cfg.State.GenesisPath != "" {
		if gen, err = genesis.Load(cfg.State.GenesisPath); err != nil {
			return fmt.Errorf("unable to load genesis file: %w", err)
		}
	}

	strg, err := storage.Open(cfg.State.Storage, cfg.State.DBPath)
	if err != nil {
		return err
	}
	defer strg.Close()

	log.Infow("admin", "storage", cfg.State.Storage, "dbpath", cfg.State.DBPath, "command", cfg.Args.Num(0))

	return processCommands(cfg.Args, strg, gen)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, strg commands.Loader, gen genesis.Genesis) error {
	switch args.Num(0) {
	case "chain":
		if err := commands.Chain(os.Stdout, strg); err != nil {
			return fmt.Errorf("listing chain: %w", err)
		}

	case "balances":
		if err := commands.Balances(os.Stdout, strg, args.Num(1)); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "verify":
		if err := commands.Verify(os.Stdout, strg, gen); err != nil {
			return fmt.Errorf("verifying snapshot: %w", err)
		}

	default:
		fmt.Println("chain:    list every block of the stored chain")
		fmt.Println("balances: show the stored balances, optionally for one address")
		fmt.Println("verify:   validate the stored chain and recompute the balances")
		fmt.Println("provide a command to run")
	}

	return nil
}
