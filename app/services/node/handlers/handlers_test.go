package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/powledger/app/services/node/handlers"
	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/contract"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/peer"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/nameservice"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type node struct {
	state   *state.State
	public  http.Handler
	private http.Handler
}

func newNode(t *testing.T, hook state.TxHook) node {
	t.Helper()

	st, err := state.New(state.Config{
		Host:    "localhost:9080",
		Storage: memory.New(),
		Genesis: genesis.Default(),
		TxHook:  hook,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	ns, err := nameservice.New(t.TempDir())
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %s", err)
	}

	cfg := handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		NS:       ns,
		Evts:     events.New(),
	}

	return node{
		state:   st,
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
	}
}

func call(h http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	var r *http.Request
	switch body {
	case "":
		r = httptest.NewRequest(method, path, nil)
	default:
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(v); err != nil {
		t.Fatalf("Should be able to decode the response %q: %s", w.Body.String(), err)
	}
}

// =============================================================================

func Test_Public(t *testing.T) {
	n := newNode(t, nil)

	type table struct {
		name   string
		method string
		path   string
		body   string
		status int
	}

	tt := []table{
		{name: "mine-for-alice", method: http.MethodPost, path: "/v1/mine", body: `{"miner":"Alice"}`, status: http.StatusOK},
		{name: "transfer", method: http.MethodPost, path: "/v1/tx/submit", body: `{"sender":"Alice","recipient":"Bob","amount":15}`, status: http.StatusCreated},
		{name: "overdraft", method: http.MethodPost, path: "/v1/tx/submit", body: `{"sender":"Alice","recipient":"Bob","amount":5000}`, status: http.StatusBadRequest},
		{name: "coinbase", method: http.MethodPost, path: "/v1/tx/submit", body: `{"sender":"0","recipient":"Bob","amount":10}`, status: http.StatusBadRequest},
		{name: "missing-recipient", method: http.MethodPost, path: "/v1/tx/submit", body: `{"sender":"Alice","amount":10}`, status: http.StatusBadRequest},
		{name: "unknown-field", method: http.MethodPost, path: "/v1/tx/submit", body: `{"sender":"Alice","recipient":"Bob","value":10}`, status: http.StatusBadRequest},
		{name: "no-peers", method: http.MethodPost, path: "/v1/peers/register", body: `{"nodes":[]}`, status: http.StatusBadRequest},
		{name: "bad-peer", method: http.MethodPost, path: "/v1/peers/register", body: `{"nodes":["localhost:9380","ftp://nowhere"]}`, status: http.StatusBadRequest},
		{name: "peers", method: http.MethodPost, path: "/v1/peers/register", body: `{"nodes":["LOCALHOST:9180","http://localhost:9180"]}`, status: http.StatusCreated},
		{name: "genesis", method: http.MethodGet, path: "/v1/genesis", status: http.StatusOK},
	}

	t.Log("Given the need to serve the public ledger api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen calling %s %s.", testID, tst.method, tst.path)
			{
				w := call(n.public, tst.method, tst.path, tst.body)
				if w.Code != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould get status %d, got %d: %s", failed, testID, tst.status, w.Code, w.Body.String())
				}
				t.Logf("\t%s\tTest %d:\tShould get status %d.", success, testID, tst.status)
			}
		}

		t.Logf("\tTest %d:\tWhen reading the ledger back.", len(tt))
		{
			var bal struct {
				Address string `json:"address"`
				Balance uint64 `json:"balance"`
			}
			decode(t, call(n.public, http.MethodGet, "/v1/balance/Alice", ""), &bal)
			if bal.Balance != 985 {
				t.Fatalf("\t%s\tShould see the live balance of Alice, got %d.", failed, bal.Balance)
			}
			t.Logf("\t%s\tShould see the live balance of Alice.", success)

			var bals struct {
				Uncommitted int `json:"uncommitted"`
				Balances    []struct {
					Address string `json:"address"`
					Balance uint64 `json:"balance"`
				} `json:"balances"`
			}
			decode(t, call(n.public, http.MethodGet, "/v1/balances", ""), &bals)
			if bals.Uncommitted != 1 || len(bals.Balances) != 2 || bals.Balances[0].Address != "Alice" || bals.Balances[1].Balance != 15 {
				t.Fatalf("\t%s\tShould see every balance in address order, got %+v.", failed, bals)
			}
			t.Logf("\t%s\tShould see every balance in address order.", success)

			var pool []database.Tx
			decode(t, call(n.public, http.MethodGet, "/v1/tx/uncommitted/list", ""), &pool)
			if len(pool) != 1 || pool[0].Recipient != "Bob" {
				t.Fatalf("\t%s\tShould see the pending transfer, got %v.", failed, pool)
			}
			t.Logf("\t%s\tShould see the pending transfer.", success)

			var ch struct {
				Chain  []database.Block `json:"chain"`
				Length int              `json:"length"`
			}
			decode(t, call(n.public, http.MethodGet, "/v1/chain", ""), &ch)
			if ch.Length != 2 || len(ch.Chain) != 2 {
				t.Fatalf("\t%s\tShould see the genesis and the mined block, got %d.", failed, ch.Length)
			}
			t.Logf("\t%s\tShould see the genesis and the mined block.", success)

			peers := n.state.RetrieveKnownPeers()
			if len(peers) != 1 || peers[0].Host != "localhost:9180" {
				t.Fatalf("\t%s\tShould register the peer once, got %v.", failed, peers)
			}
			t.Logf("\t%s\tShould register the peer once.", success)
		}
	}
}

func Test_Private(t *testing.T) {
	t.Log("Given the need to serve the node to node api.")
	{
		miner := newNode(t, nil)
		n := newNode(t, nil)

		block, err := miner.state.Mine(t.Context(), "Alice")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %s", failed, err)
		}

		body, err := json.Marshal(block)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to marshal the block: %s", failed, err)
		}

		t.Log("\tWhen a peer proposes blocks.")
		{
			w := call(n.private, http.MethodPost, "/v1/node/block/propose", string(body))
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tShould accept the next block, got %d: %s", failed, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tShould accept the next block.", success)

			w = call(n.private, http.MethodPost, "/v1/node/block/propose", string(body))
			if w.Code != http.StatusNotAcceptable {
				t.Fatalf("\t%s\tShould refuse the same block twice, got %d.", failed, w.Code)
			}

			var er errs.Response
			decode(t, w, &er)
			if !strings.HasPrefix(er.Error, "block not accepted") {
				t.Fatalf("\t%s\tShould explain the refusal, got %q.", failed, er.Error)
			}
			t.Logf("\t%s\tShould refuse the same block twice.", success)
		}

		t.Log("\tWhen a peer shares a transaction.")
		{
			w := call(n.private, http.MethodPost, "/v1/node/tx/submit", `{"sender":"Alice","recipient":"Bob","amount":10}`)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tShould accept the transaction, got %d: %s", failed, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tShould accept the transaction.", success)

			if n.state.QueryMempoolLength() != 1 {
				t.Fatalf("\t%s\tShould hold the transaction in the pool.", failed)
			}
			t.Logf("\t%s\tShould hold the transaction in the pool.", success)
		}

		t.Log("\tWhen a peer asks for the node status and blocks.")
		{
			var ps peer.PeerStatus
			decode(t, call(n.private, http.MethodGet, "/v1/node/status", ""), &ps)
			if ps.LatestBlockNumber != 2 || ps.LatestBlockHash != block.Hash() {
				t.Fatalf("\t%s\tShould report the tip, got %+v.", failed, ps)
			}
			t.Logf("\t%s\tShould report the tip.", success)

			var blocks []database.Block
			decode(t, call(n.private, http.MethodGet, "/v1/node/block/list/2/latest", ""), &blocks)
			if len(blocks) != 1 || blocks[0].Hash() != block.Hash() {
				t.Fatalf("\t%s\tShould list the requested blocks, got %d.", failed, len(blocks))
			}
			t.Logf("\t%s\tShould list the requested blocks.", success)

			w := call(n.private, http.MethodGet, "/v1/node/block/list/3/1", "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tShould refuse a reversed range, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tShould refuse a reversed range.", success)

			var chain []database.Block
			decode(t, call(n.private, http.MethodGet, "/v1/node/chain", ""), &chain)
			if len(chain) != 2 {
				t.Fatalf("\t%s\tShould return the full chain, got %d.", failed, len(chain))
			}
			t.Logf("\t%s\tShould return the full chain.", success)
		}

		t.Log("\tWhen a peer announces itself.")
		{
			w := call(n.private, http.MethodPost, "/v1/node/peers/register", `{"nodes":["localhost:9080","localhost:9280"]}`)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tShould register the peer, got %d: %s", failed, w.Code, w.Body.String())
			}

			peers := n.state.RetrieveKnownPeers()
			if len(peers) != 1 || peers[0].Host != "localhost:9280" {
				t.Fatalf("\t%s\tShould skip its own host, got %v.", failed, peers)
			}
			t.Logf("\t%s\tShould register the peer and skip its own host.", success)
		}
	}
}

func Test_Refused(t *testing.T) {
	rules := contract.Rules{contract.CapAmount{Max: 10}}
	n := newNode(t, rules.Hook())

	if _, err := n.state.NewTransaction(database.NewTx(database.Address(genesis.DefaultCoinbase), "Alice", 100)); err != nil {
		t.Fatalf("Should be able to fund Alice: %s", err)
	}

	type table struct {
		name   string
		h      http.Handler
		path   string
		body   string
		status int
	}

	tt := []table{
		{name: "wallet-over-cap", h: n.public, path: "/v1/tx/submit", body: `{"sender":"Alice","recipient":"Bob","amount":50}`, status: http.StatusBadRequest},
		{name: "wallet-under-cap", h: n.public, path: "/v1/tx/submit", body: `{"sender":"Alice","recipient":"Bob","amount":5}`, status: http.StatusCreated},
		{name: "node-over-cap", h: n.private, path: "/v1/node/tx/submit", body: `{"sender":"Alice","recipient":"Bob","amount":50}`, status: http.StatusBadRequest},
		{name: "node-no-recipient", h: n.private, path: "/v1/node/tx/submit", body: `{"sender":"Alice","amount":5}`, status: http.StatusBadRequest},
	}

	t.Log("Given the need to refuse transactions the ledger won't take.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen posting %s.", testID, tst.name)
			{
				w := call(tst.h, http.MethodPost, tst.path, tst.body)
				if w.Code != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould get status %d, got %d: %s", failed, testID, tst.status, w.Code, w.Body.String())
				}
				t.Logf("\t%s\tTest %d:\tShould get status %d.", success, testID, tst.status)

				if w.Code == http.StatusBadRequest {
					var er errs.Response
					decode(t, w, &er)
					if er.Error == http.StatusText(http.StatusInternalServerError) || er.Error == "" {
						t.Fatalf("\t%s\tTest %d:\tShould explain the refusal, got %q.", failed, testID, er.Error)
					}
					t.Logf("\t%s\tTest %d:\tShould explain the refusal.", success, testID)
				}
			}
		}

		if n.state.QueryBalance("Alice") != 95 || n.state.QueryBalance("Bob") != 5 {
			t.Fatalf("\t%s\tShould only apply the accepted transfer, got %v.", failed, n.state.RetrieveBalances())
		}
		t.Logf("\t%s\tShould only apply the accepted transfer.", success)
	}
}
