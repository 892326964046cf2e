package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/core/block"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/eventsync"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap/zaptest"
)

// wsNode is a websocket RPC node which floods block notifications to the
// subscriber until it unsubscribes.
type wsNode struct {
	t *testing.T

	subscribed   atomic.Bool
	unsubscribed atomic.Bool
	sent         atomic.Uint32
}

type wsRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newWSNode(t *testing.T) (*wsNode, string) {
	n := &wsNode{t: t}

	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(srv.Close)

	return n, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (n *wsNode) serve(w http.ResponseWriter, r *http.Request) {
	var upgrader websocket.Upgrader

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var (
		mtx  sync.Mutex
		stop = make(chan struct{})
		once sync.Once
	)
	defer once.Do(func() { close(stop) })

	write := func(v any) error {
		mtx.Lock()
		defer mtx.Unlock()
		return conn.WriteJSON(v)
	}

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		var res any
		switch req.Method {
		case "getversion":
			res = result.Version{
				UserAgent: "/test/",
				Protocol:  result.Protocol{Network: netmode.UnitTestNet, MillisecondsPerBlock: 1000},
			}
		case "getnativecontracts":
			res = []any{}
		case "subscribe":
			n.subscribed.Store(true)
			res = "1"
			go n.flood(write, stop)
		case "unsubscribe":
			n.unsubscribed.Store(true)
			once.Do(func() { close(stop) })
			res = true
		default:
			n.t.Errorf("unexpected method %s", req.Method)
			return
		}

		err := write(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": res})
		if err != nil {
			return
		}
	}
}

func (n *wsNode) flood(write func(any) error, stop <-chan struct{}) {
	for i := uint32(1); ; i++ {
		select {
		case <-stop:
			return
		default:
		}

		b := block.New(false)
		b.Index = i
		b.Timestamp = uint64(i)

		err := write(map[string]any{"jsonrpc": "2.0", "method": "block_added", "params": []any{b}})
		if err != nil {
			return
		}
		n.sent.Inc()
	}
}

func newWSSession(t *testing.T, endpoint, db string) *Session {
	cfg := DefaultConfig()
	cfg.RPC.Endpoint = endpoint
	cfg.RPC.RequestTimeout = 30 * time.Second
	cfg.Contract = util.Uint160{1, 2, 3}.StringLE()
	cfg.Sync.DB = db

	s, err := Open(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, s.ws)

	return s
}

func TestSubscribeBlocks(t *testing.T) {
	node, endpoint := newWSNode(t)
	s := newWSSession(t, endpoint, "")

	blocks, err := s.subscribeBlocks()
	require.NoError(t, err)
	require.True(t, node.subscribed.Load())

	select {
	case <-blocks:
	case <-time.After(5 * time.Second):
		t.Fatal("no new block signal")
	}

	// Nobody reads the signals anymore while the node keeps sending blocks.
	require.Eventually(t, func() bool { return node.sent.Load() > 10 }, 5*time.Second, time.Millisecond)

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("session close is stuck on block subscription")
	}
	require.True(t, node.unsubscribed.Load())
}

func TestNewSyncerWebSocket(t *testing.T) {
	node, endpoint := newWSNode(t)
	db := filepath.Join(t.TempDir(), "sync.db")
	s := newWSSession(t, endpoint, db)

	syncer, err := s.NewSyncer(eventsync.NewTable())
	require.NoError(t, err)
	require.NotNil(t, syncer)
	require.True(t, node.subscribed.Load())

	s.Close()
	require.True(t, node.unsubscribed.Load())
	require.FileExists(t, db)
}
