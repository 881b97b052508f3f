// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ardanlabs/powledger/foundation/blockchain/balance"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the ledger.
type EventHandler func(v string, args ...any)

// TxHook defines a function that can rewrite or refuse a transaction before
// it is applied to the balances.
type TxHook func(tx database.Tx) (database.Tx, error)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	Sync()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(tx database.Tx)
	SignalShareBlock(block database.Block)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Beneficiary       database.Address
	Host              string
	Genesis           genesis.Genesis
	Storage           database.Storage
	KnownPeers        *peer.PeerSet
	EvHandler         EventHandler
	TxHook            TxHook
	AutoMine          bool
	StrictPersistence bool
	RequireSignature  bool
}

// State manages the blockchain database.
type State struct {
	mu        sync.Mutex
	resyncWG  sync.WaitGroup
	resyncing atomic.Bool

	beneficiary       database.Address
	host              string
	evHandler         EventHandler
	txHook            TxHook
	autoMine          bool
	strictPersistence bool
	requireSignature  bool

	genesis      genesis.Genesis
	genesisBlock database.Block
	coinbase     database.Address
	chain        []database.Block
	sealed       *balance.Ledger
	balances     *balance.Ledger
	mempool      *mempool.Mempool
	storage      database.Storage
	knownPeers   *peer.PeerSet

	Worker Worker
}

// New constructs a new blockchain for data management. The snapshot held by
// the storage is loaded and validated. An empty snapshot is seeded with the
// genesis block. A snapshot that can't be read or doesn't validate is an
// error and the node must not start.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	gen := cfg.Genesis
	if gen.Difficulty == 0 {
		gen = genesis.Default()
	}

	host := cfg.Host
	if host != "" {
		var err error
		if host, err = peer.Canonical(host); err != nil {
			return nil, fmt.Errorf("host: %w", err)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Load the last snapshot written by this node.
	snapshot, err := cfg.Storage.Load()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	genesisBlock := database.GenesisBlock(gen)
	coinbase := database.Address(gen.Coinbase)

	chain := snapshot.Chain
	seeded := len(chain) == 0
	if seeded {
		ev("state: New: seeding chain with genesis block[%s]", genesisBlock.Hash())
		chain = []database.Block{genesisBlock}
	}

	if err := database.ValidateChain(chain, genesisBlock, gen.Difficulty, ev); err != nil {
		return nil, fmt.Errorf("validate stored chain: %w", err)
	}

	// Balances for the sealed chain are always recomputed from the blocks.
	sealed := balance.New(coinbase, nil)
	if err := sealed.Replay(chain); err != nil {
		return nil, fmt.Errorf("replay stored chain: %w", err)
	}

	// The stored balances include the effects of the pool at the time of the
	// last save. The pool doesn't survive a restart so the chain wins.
	reconcile := !seeded && !sealed.Copy().Equal(snapshot.Balances)
	if reconcile {
		ev("state: New: WARNING: stored balances don't match the chain: using the chain")
	}

	state := State{
		beneficiary:       cfg.Beneficiary,
		host:              host,
		evHandler:         ev,
		txHook:            cfg.TxHook,
		autoMine:          cfg.AutoMine,
		strictPersistence: cfg.StrictPersistence,
		requireSignature:  cfg.RequireSignature,

		genesis:      gen,
		genesisBlock: genesisBlock,
		coinbase:     coinbase,
		chain:        chain,
		sealed:       sealed,
		balances:     sealed.Clone(),
		mempool:      mempool.New(),
		storage:      cfg.Storage,
		knownPeers:   knownPeers,

		Worker: nopWorker{},
	}

	if seeded || reconcile {
		if err := state.persist(nil); err != nil {
			return nil, err
		}
	}

	ev("state: New: chain loaded: height[%d]: tip[%s]", len(chain), chain[len(chain)-1].Hash())

	// The Worker is a no-op here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	// Wait for any resync to finish.
	s.resyncWG.Wait()

	// Make sure the database is properly closed.
	return s.storage.Close()
}

// IsMiningAllowed identifies if this node mines on its own when
// transactions arrive.
func (s *State) IsMiningAllowed() bool {
	return s.autoMine && s.beneficiary != "" && !s.resyncing.Load()
}

// =============================================================================

// tip returns the latest block of the chain. The lock must be held.
func (s *State) tip() database.Block {
	return s.chain[len(s.chain)-1]
}

// checkpoint captures the in-memory ledger so a mutation can be undone. The
// lock must be held.
func (s *State) checkpoint() func() {
	chain := s.chain
	trans := s.mempool.Copy()
	sealed := s.sealed.Copy()
	balances := s.balances.Copy()

	return func() {
		s.chain = chain
		s.mempool.Replace(trans)
		s.sealed.Reset(sealed)
		s.balances.Reset(balances)
	}
}

// persist writes the chain and the current balances as one snapshot. The
// lock must be held. When the write fails in strict mode, the restore
// function is used to undo the mutation that was being persisted.
func (s *State) persist(restore func()) error {
	snapshot := database.Snapshot{
		Chain:    s.chain,
		Balances: s.balances.Copy(),
	}

	if err := s.storage.Save(snapshot); err != nil {
		s.evHandler("state: persist: ERROR: %s", err)

		if s.strictPersistence && restore != nil {
			s.evHandler("state: persist: rolling back in-memory ledger")
			restore()
		}

		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return nil
}

// rebuildBalances recomputes the live balances from the sealed balances and
// the pool. Pool transactions that no longer apply are dropped. The lock
// must be held.
func (s *State) rebuildBalances() {
	balances := s.sealed.Clone()

	var keep []database.Tx
	for _, tx := range s.mempool.Copy() {
		if err := balances.Apply(tx); err != nil {
			s.evHandler("state: rebuildBalances: WARNING: dropping tx[%s]: %s", tx, err)
			continue
		}
		keep = append(keep, tx)
	}

	s.mempool.Replace(keep)
	s.balances.Replace(balances)
}

// shouldShare reports whether the result of a mutation must still be shared
// with the network. A persistence error in strict mode undid the mutation.
func (s *State) shouldShare(err error) bool {
	if err == nil {
		return true
	}

	return errors.Is(err, ErrPersistence) && !s.strictPersistence
}

// =============================================================================

// nopWorker is used until a real worker registers itself.
type nopWorker struct{}

func (nopWorker) Shutdown() {}
func (nopWorker) Sync() {}
func (nopWorker) SignalStartMining() {}
func (nopWorker) SignalCancelMining() {}
func (nopWorker) SignalShareTx(database.Tx) {}
func (nopWorker) SignalShareBlock(database.Block) {}
