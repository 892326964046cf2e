/*
Package session holds everything a ratings client needs to talk to the
network: RPC connection, signing account, contract bindings, asynchronous
client and transaction poller. Session replaces process-wide state, several
sessions may coexist.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/block"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/ratingsmarket/ratings-contract/eventsync"
	"github.com/ratingsmarket/ratings-contract/poller"
	"github.com/ratingsmarket/ratings-contract/rpc/ratings"
	"github.com/ratingsmarket/ratings-contract/rpcasync"
	"github.com/ratingsmarket/ratings-contract/viewdb"
	"go.uber.org/zap"
)

// ErrReadOnly is returned on attempt to send transaction from the session
// without account.
var ErrReadOnly = errors.New("session is read-only")

// Session is a connection to the Ratings contract.
type Session struct {
	cfg Config
	log *zap.Logger

	rpc *rpcclient.Client
	ws  *rpcclient.WSClient

	account  *wallet.Account
	contract util.Uint160

	reader *ratings.ContractReader
	writer *ratings.Contract
	async  *rpcasync.Client
	poller *poller.Poller

	closers []func()
}

// Open connects to the RPC node described by cfg.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	contract, _ := ParseHash160(cfg.Contract)

	s := &Session{cfg: cfg, log: log, contract: contract}

	opts := rpcclient.Options{
		DialTimeout:    cfg.RPC.DialTimeout,
		RequestTimeout: cfg.RPC.RequestTimeout,
	}

	if isWebSocket(cfg.RPC.Endpoint) {
		ws, err := rpcclient.NewWS(ctx, cfg.RPC.Endpoint, rpcclient.WSOptions{Options: opts})
		if err != nil {
			return nil, fmt.Errorf("open websocket RPC client: %w", err)
		}
		s.ws, s.rpc = ws, &ws.Client
		s.closers = append(s.closers, ws.Close)
	} else {
		c, err := rpcclient.New(ctx, cfg.RPC.Endpoint, opts)
		if err != nil {
			return nil, fmt.Errorf("open RPC client: %w", err)
		}
		s.rpc = c
		s.closers = append(s.closers, c.Close)
	}

	if err := s.rpc.Init(); err != nil {
		s.Close()
		return nil, fmt.Errorf("init RPC client: %w", err)
	}

	var act rpcasync.Actor
	if cfg.Wallet.Path != "" {
		acc, err := OpenAccount(cfg.Wallet)
		if err != nil {
			s.Close()
			return nil, err
		}

		a, err := actor.NewSimple(s.rpc, acc)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("init transaction sender: %w", err)
		}

		s.account = acc
		s.writer = ratings.New(a, contract)
		s.reader = &s.writer.ContractReader
		act = a
	} else {
		inv := invoker.New(s.rpc, nil)
		s.reader = ratings.NewReader(inv, contract)
		act = readOnlyActor{inv}
	}

	s.async = rpcasync.New(rpcasync.Prm{
		RPC:      s.rpc,
		Actor:    act,
		Contract: contract,
		Logger:   log,
	})

	s.poller = poller.New(s.async, poller.Prm{
		Interval: cfg.Poller.Interval,
		Timeout:  cfg.Poller.Timeout,
		Logger:   log,
	})

	log.Info("session opened",
		zap.String("endpoint", cfg.RPC.Endpoint),
		zap.Stringer("contract", contract),
		zap.Bool("read-only", s.account == nil))

	return s, nil
}

// OpenAccount reads the wallet and decrypts the configured account. The first
// account of the wallet is used if the address is not set.
func OpenAccount(cfg WalletConfig) (*wallet.Account, error) {
	w, err := wallet.NewWalletFromFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open wallet: %w", err)
	}
	defer w.Close()

	var acc *wallet.Account
	if cfg.Address != "" {
		h, err := ParseHash160(cfg.Address)
		if err != nil {
			return nil, fmt.Errorf("invalid account address: %w", err)
		}

		acc = w.GetAccount(h)
		if acc == nil {
			return nil, fmt.Errorf("account %s is missing in the wallet", cfg.Address)
		}
	} else {
		if len(w.Accounts) == 0 {
			return nil, errors.New("wallet has no accounts")
		}
		acc = w.Accounts[0]
	}

	if err := acc.Decrypt(cfg.Password, w.Scrypt); err != nil {
		return nil, fmt.Errorf("decrypt account: %w", err)
	}

	return acc, nil
}

// Close releases all the resources of the session.
func (s *Session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Contract returns address of the Ratings contract.
func (s *Session) Contract() util.Uint160 {
	return s.contract
}

// Account returns address of the session account.
func (s *Session) Account() (util.Uint160, error) {
	if s.account == nil {
		return util.Uint160{}, ErrReadOnly
	}
	return s.account.ScriptHash(), nil
}

// Reader returns contract reader.
func (s *Session) Reader() *ratings.ContractReader {
	return s.reader
}

// Writer returns contract writer or ErrReadOnly.
func (s *Session) Writer() (*ratings.Contract, error) {
	if s.writer == nil {
		return nil, ErrReadOnly
	}
	return s.writer, nil
}

// Async returns asynchronous client of the session.
func (s *Session) Async() *rpcasync.Client {
	return s.async
}

// Confirm waits for the transaction and checks that it succeeded.
func (s *Session) Confirm(ctx context.Context, tx poller.Tx) (*result.ApplicationLog, error) {
	log, err := s.poller.WaitTx(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := poller.CheckHalt(log); err != nil {
		return log, err
	}

	return log, nil
}

// NewSyncer creates request list synchronizer rendering into the view. Rows
// are persisted if the database is configured. Block subscription is used
// for websocket endpoints, it lives until the session is closed.
func (s *Session) NewSyncer(view eventsync.View) (*eventsync.Syncer, error) {
	prm := eventsync.Prm{
		Chain:     s.rpc,
		Contract:  s.contract,
		View:      view,
		Interval:  s.cfg.Sync.Interval,
		CacheSize: s.cfg.Sync.CacheSize,
		Logger:    s.log,
	}

	if s.cfg.Sync.DB != "" {
		magic, err := s.rpc.GetNetwork()
		if err != nil {
			return nil, fmt.Errorf("get network magic: %w", err)
		}

		st, err := viewdb.Open(s.cfg.Sync.DB, viewdb.Scope{Network: magic, Contract: s.contract})
		if err != nil {
			return nil, err
		}
		if st.Reset() {
			s.log.Warn("persisted request list belongs to another contract, dropped",
				zap.String("db", s.cfg.Sync.DB))
		}
		prm.Store = st
		s.closers = append(s.closers, func() { _ = st.Close() })
	}

	if s.ws != nil {
		ch, err := s.subscribeBlocks()
		if err != nil {
			return nil, err
		}
		prm.NewBlocks = ch
	}

	return eventsync.New(prm)
}

// subscribeBlocks returns a channel signalled on every new block. Blocks are
// drained until the unsubscription completes, otherwise the websocket client
// stalls on delivery and never routes the unsubscription reply.
func (s *Session) subscribeBlocks() (<-chan struct{}, error) {
	blocks := make(chan *block.Block)

	id, err := s.ws.ReceiveBlocks(nil, blocks)
	if err != nil {
		return nil, fmt.Errorf("subscribe to new blocks: %w", err)
	}

	var (
		res  = make(chan struct{}, 1)
		stop = make(chan struct{})
		done = make(chan struct{})
	)

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case b, ok := <-blocks:
				if !ok {
					s.log.Warn("block subscription closed")
					return
				}
				s.log.Debug("new block", zap.Uint32("index", b.Index))
				select {
				case res <- struct{}{}:
				default:
				}
			}
		}
	}()

	s.closers = append(s.closers, func() {
		if err := s.ws.Unsubscribe(id); err != nil {
			s.log.Debug("failed to unsubscribe from new blocks", zap.Error(err))
		}
		close(stop)
		<-done
	})

	return res, nil
}

func isWebSocket(endpoint string) bool {
	return strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://")
}

// readOnlyActor allows test invocations only.
type readOnlyActor struct {
	*invoker.Invoker
}

func (readOnlyActor) SendCall(util.Uint160, string, ...any) (util.Uint256, uint32, error) {
	return util.Uint256{}, 0, ErrReadOnly
}

func (readOnlyActor) Sender() util.Uint160 {
	return util.Uint160{}
}
