/*
Package eventsync builds the list of requests for rating from contract
notifications.

Syncer scans the ledger from the genesis (or from the persisted cursor) up to
the latest block and renders one row per RequestSubmitted notification in
ledger order. Then it follows new blocks starting exactly from the block after
the last scanned one, so no notification is lost or rendered twice between the
history and live phases. Rendering is additionally guarded by a bounded set of
seen request keys.
*/
package eventsync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/neo-go/pkg/core/block"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/contracts/ratings/ratingsconst"
	"github.com/ratingsmarket/ratings-contract/metrics"
	"github.com/ratingsmarket/ratings-contract/rpc/ratings"
	"go.uber.org/zap"
)

// Chain is a subset of RPC client methods needed to scan the ledger.
type Chain interface {
	GetBlockCount() (uint32, error)
	GetBlockByIndex(index uint32) (*block.Block, error)
	GetApplicationLog(hash util.Uint256, trig *trigger.Type) (*result.ApplicationLog, error)
}

// Store persists rendered rows along with the scan cursor.
type Store interface {
	// Load returns persisted rows in the order of rendering and the last
	// scanned block. ok is false if nothing was persisted yet.
	Load(ctx context.Context) (rows []Row, cursor uint32, ok bool, err error)
	// Save atomically persists new rows, reward updates and the cursor.
	Save(ctx context.Context, rows []Row, rewards []RewardUpdate, cursor uint32) error
}

// RewardUpdate is a new total reward of the request.
type RewardUpdate struct {
	Key    util.Uint256
	Reward *big.Int
}

const (
	// DefaultInterval is a live phase polling interval used when
	// Prm.Interval is not set.
	DefaultInterval = time.Second

	// DefaultCacheSize is a size of the seen-key set used when
	// Prm.CacheSize is not set.
	DefaultCacheSize = 10_000
)

// Prm groups parameters of New.
type Prm struct {
	Chain    Chain
	Contract util.Uint160
	View     View

	// Store is optional, nothing is persisted if nil.
	Store Store

	// Interval between chain height checks in live phase.
	Interval time.Duration
	// NewBlocks optionally triggers immediate live phase scan, e.g. from
	// a websocket block subscription.
	NewBlocks <-chan struct{}

	CacheSize int

	Logger *zap.Logger
}

// Syncer renders requests for rating into the View.
type Syncer struct {
	chain    Chain
	contract util.Uint160
	view     View
	store    Store
	interval time.Duration
	blocks   <-chan struct{}
	seen     *lru.Cache
	log      *zap.Logger

	// next block to scan
	next uint32

	historyDone chan struct{}
}

// New constructs Syncer from the given parameters.
func New(prm Prm) (*Syncer, error) {
	switch {
	case prm.Chain == nil:
		return nil, errors.New("missing chain")
	case prm.View == nil:
		return nil, errors.New("missing view")
	}

	if prm.Interval <= 0 {
		prm.Interval = DefaultInterval
	}
	if prm.CacheSize <= 0 {
		prm.CacheSize = DefaultCacheSize
	}
	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}

	seen, err := lru.New(prm.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create seen-key set: %w", err)
	}

	return &Syncer{
		chain:       prm.Chain,
		contract:    prm.Contract,
		view:        prm.View,
		store:       prm.Store,
		interval:    prm.Interval,
		blocks:      prm.NewBlocks,
		seen:        seen,
		log:         prm.Logger,
		historyDone: make(chan struct{}),
	}, nil
}

// HistoryDone returns a channel closed once all the historical notifications
// are rendered.
func (s *Syncer) HistoryDone() <-chan struct{} {
	return s.historyDone
}

// Run renders historical notifications and then follows new blocks until ctx
// is done. It's not safe to call Run concurrently.
func (s *Syncer) Run(ctx context.Context) error {
	if err := s.History(ctx); err != nil {
		return err
	}

	return s.Live(ctx)
}

// History restores persisted rows and renders notifications from the
// cursor to the current chain height.
func (s *Syncer) History(ctx context.Context) error {
	if s.store != nil {
		rows, cursor, ok, err := s.store.Load(ctx)
		if err != nil {
			return fmt.Errorf("load persisted rows: %w", err)
		}

		if ok {
			for i := range rows {
				s.render(rows[i], metrics.PhaseHistory)
			}
			s.next = cursor + 1

			s.log.Info("restored persisted rows",
				zap.Int("rows", len(rows)),
				zap.Uint32("cursor", cursor))
		}
	}

	s.log.Info("scanning ledger history", zap.Uint32("from", s.next))

	if err := s.catchUp(ctx, metrics.PhaseHistory); err != nil {
		return err
	}

	close(s.historyDone)

	s.log.Info("ledger history scanned", zap.Uint32("next", s.next))

	return nil
}

// Live follows new blocks until ctx is done. History must be called first.
func (s *Syncer) Live(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		case <-s.blocks:
		}

		if err := s.catchUp(ctx, metrics.PhaseLive); err != nil {
			return err
		}
	}
}

// Next returns the index of the next block to be scanned.
func (s *Syncer) Next() uint32 {
	return s.next
}

func (s *Syncer) catchUp(ctx context.Context, phase string) error {
	count, err := s.chain.GetBlockCount()
	if err != nil {
		return fmt.Errorf("get block count: %w", err)
	}

	for ; s.next < count; s.next++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		rows, rewards, err := s.scanBlock(s.next)
		if err != nil {
			return err
		}

		if s.store != nil && (len(rows) != 0 || len(rewards) != 0 || s.next+1 == count) {
			if err := s.store.Save(ctx, rows, rewards, s.next); err != nil {
				return fmt.Errorf("persist block %d: %w", s.next, err)
			}
		}

		for i := range rows {
			s.render(rows[i], phase)
		}
		for i := range rewards {
			s.view.SetReward(rewards[i].Key, rewards[i].Reward)
		}

		metrics.SyncHeight.Set(float64(s.next))
	}

	return nil
}

// scanBlock collects request rows and reward updates of the contract from
// all transactions of the block in ledger order.
func (s *Syncer) scanBlock(index uint32) ([]Row, []RewardUpdate, error) {
	b, err := s.chain.GetBlockByIndex(index)
	if err != nil {
		return nil, nil, fmt.Errorf("get block %d: %w", index, err)
	}

	var (
		rows    []Row
		rewards []RewardUpdate
	)

	for _, tx := range b.Transactions {
		h := tx.Hash()

		log, err := s.chain.GetApplicationLog(h, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("get application log of %s: %w", h.StringLE(), err)
		}

		var n int
		for _, ex := range log.Executions {
			if ex.Trigger != trigger.Application {
				continue
			}

			for _, e := range ex.Events {
				n++
				if !e.ScriptHash.Equals(s.contract) {
					continue
				}

				switch e.Name {
				case ratingsconst.EventRequestSubmitted:
					var ev ratings.RequestSubmittedEvent
					if err := ev.FromStackItem(e.Item); err != nil {
						return nil, nil, fmt.Errorf("decode %s in %s: %w", e.Name, h.StringLE(), err)
					}

					rows = append(rows, Row{
						Key:         ev.Key,
						Investor:    ev.Investor,
						Reward:      ev.Reward,
						Deadline:    ev.Deadline.Int64(),
						MaxAuditors: ev.MaxAuditors.Int64(),
						Block:       index,
						Tx:          h,
						Index:       n - 1,
					})
				case ratingsconst.EventContributed:
					var ev ratings.ContributedEvent
					if err := ev.FromStackItem(e.Item); err != nil {
						return nil, nil, fmt.Errorf("decode %s in %s: %w", e.Name, h.StringLE(), err)
					}

					rewards = append(rewards, RewardUpdate{Key: ev.Key, Reward: ev.Total})
				}
			}
		}
	}

	return rows, rewards, nil
}

func (s *Syncer) render(r Row, phase string) {
	if ok, _ := s.seen.ContainsOrAdd(r.Key, struct{}{}); ok {
		metrics.DuplicateEventsTotal.Inc()
		s.log.Debug("request is already rendered", zap.Stringer("key", r.Key))
		return
	}

	s.view.Append(r)
	metrics.RowsRenderedTotal.WithLabelValues(phase).Inc()

	s.log.Debug("request rendered",
		zap.String("phase", phase),
		zap.Stringer("key", r.Key),
		zap.Uint32("block", r.Block))
}
