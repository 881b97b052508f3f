// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/nameservice"
	"github.com/ardanlabs/powledger/foundation/validate"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints for wallets and users.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	id, ch := h.Evts.Acquire()
	defer h.Evts.Release(id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Chain returns the full chain and its length.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.RetrieveChain()

	resp := chain{
		Chain:  blocks,
		Length: len(blocks),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balances returns the live balances of every account.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	live := h.State.RetrieveBalances()

	bals := make([]balance, 0, len(live))
	for address, value := range live {
		bals = append(bals, balance{
			Address: address,
			Name:    h.NS.Lookup(address),
			Balance: value,
		})
	}
	sort.Slice(bals, func(i, j int) bool {
		return bals[i].Address < bals[j].Address
	})

	resp := balances{
		LatestBlock: h.State.RetrieveLatestBlock().Hash(),
		Uncommitted: h.State.QueryMempoolLength(),
		Balances:    bals,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balance returns the live balance of one account. The account can be
// specified by name. Unseen accounts have a zero balance.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := h.NS.Resolve(web.Param(r, "address"))

	resp := balance{
		Address: address,
		Name:    h.NS.Lookup(address),
		Balance: h.State.QueryBalance(address),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.RetrieveMempool()

	trans := make([]tx, len(mempool))
	for i, tran := range mempool {
		trans[i] = tx{
			Sender:        tran.Sender,
			SenderName:    h.NS.Lookup(tran.Sender),
			Recipient:     tran.Recipient,
			RecipientName: h.NS.Lookup(tran.Recipient),
			Amount:        tran.Amount,
			Signature:     tran.Signature,
		}
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// SubmitWalletTransaction adds a new user transaction to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return decodeError(err)
	}

	tran := database.Tx{
		Amount:    ntx.Amount,
		Recipient: database.Address(ntx.Recipient),
		Sender:    database.Address(ntx.Sender),
		Signature: ntx.Signature,
	}

	// Names can only be used when nothing was signed since the signature
	// covers the addresses.
	if tran.Signature == "" {
		tran.Sender = h.NS.Resolve(ntx.Sender)
		tran.Recipient = h.NS.Resolve(ntx.Recipient)
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "tx", tran)

	index, err := h.State.SubmitWalletTransaction(tran)
	if err != nil {
		return errs.FromLedger(err)
	}

	resp := struct {
		Message string `json:"message"`
		Index   uint64 `json:"index"`
	}{
		Message: fmt.Sprintf("transaction will be added to block %d", index),
		Index:   index,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Mine searches for the proof of the next block and seals the pool into it
// with a reward for the miner.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// An empty body mines for the node's beneficiary.
	var nm newMine
	if err := web.Decode(r, &nm); err != nil && !errors.Is(err, io.EOF) {
		return decodeError(err)
	}

	miner := h.State.RetrieveBeneficiary()
	if nm.Miner != "" {
		miner = h.NS.Resolve(nm.Miner)
	}

	h.Log.Infow("mine", "traceid", v.TraceID, "miner", miner)

	block, err := h.State.Mine(ctx, miner)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		}
		return errs.FromLedger(err)
	}

	resp := struct {
		Message string         `json:"message"`
		Block   database.Block `json:"block"`
		Hash    string         `json:"hash"`
	}{
		Message: "new block forged",
		Block:   block,
		Hash:    block.Hash(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RegisterPeers adds the listed nodes to the known peers.
func (h Handlers) RegisterPeers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var np newPeers
	if err := web.Decode(r, &np); err != nil {
		return decodeError(err)
	}

	if _, err := h.State.RegisterPeers(np.Nodes); err != nil {
		return errs.FromLedger(err)
	}

	peers := h.State.RetrieveKnownPeers()

	hosts := make([]string, len(peers))
	for i, pr := range peers {
		hosts[i] = pr.Host
	}
	sort.Strings(hosts)

	resp := struct {
		Message    string   `json:"message"`
		TotalNodes []string `json:"total_nodes"`
	}{
		Message:    "new nodes have been added",
		TotalNodes: hosts,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// =============================================================================

// decodeError keeps validation errors intact so they are reported with
// their fields and marks anything else as a bad request.
func decodeError(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}
	return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
}
