/*
Package poller waits for transactions to be persisted in the ledger.

A transaction is considered confirmed once its application log (receipt) is
available. Poller queries the receipt repeatedly with a fixed interval until it
appears, the wait times out, the context is cancelled or the transaction
expires.
*/
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/metrics"
	"github.com/ratingsmarket/ratings-contract/rpcasync"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultInterval is a receipt polling interval used when Prm.Interval is not set.
const DefaultInterval = 500 * time.Millisecond

var (
	// ErrTimeout is returned when the receipt hasn't appeared within Prm.Timeout.
	ErrTimeout = errors.New("transaction confirmation timed out")

	// ErrExpired is returned when the chain has passed ValidUntilBlock of the
	// transaction and the receipt is still absent.
	ErrExpired = errors.New("transaction expired")
)

// Ledger provides asynchronous ledger queries needed by Poller.
// [rpcasync.Client] is the default implementation.
type Ledger interface {
	ReceiptAsync(ctx context.Context, h util.Uint256) *rpcasync.Future[*result.ApplicationLog]
	BlockCountAsync(ctx context.Context) *rpcasync.Future[uint32]
}

// Tx is a transaction to wait for. Zero ValidUntilBlock disables expiration
// check.
type Tx struct {
	Hash            util.Uint256
	ValidUntilBlock uint32
}

// Prm groups parameters of New.
type Prm struct {
	// Interval between receipt requests, DefaultInterval if zero.
	Interval time.Duration
	// Timeout limits a single wait, zero means no limit.
	Timeout time.Duration

	Logger *zap.Logger
}

// Poller waits for transaction receipts.
type Poller struct {
	ledger   Ledger
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
}

// New constructs Poller querying the given ledger.
func New(l Ledger, prm Prm) *Poller {
	if prm.Interval <= 0 {
		prm.Interval = DefaultInterval
	}
	if prm.Logger == nil {
		prm.Logger = zap.NewNop()
	}

	return &Poller{
		ledger:   l,
		interval: prm.Interval,
		timeout:  prm.Timeout,
		log:      prm.Logger,
	}
}

// Wait waits for the receipt of the transaction with the given hash.
func (p *Poller) Wait(ctx context.Context, h util.Uint256) (*result.ApplicationLog, error) {
	return p.WaitTx(ctx, Tx{Hash: h})
}

// WaitTx waits for the receipt of the transaction. Query errors are returned
// immediately without retries.
func (p *Poller) WaitTx(ctx context.Context, tx Tx) (*result.ApplicationLog, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()

	res, err := p.wait(ctx, tx)

	metrics.ConfirmationDuration.Observe(time.Since(start).Seconds())
	metrics.ConfirmationsTotal.WithLabelValues(resultLabel(err)).Inc()

	if err != nil {
		return nil, err
	}

	p.log.Debug("transaction confirmed", zap.Stringer("tx", tx.Hash))

	return res, nil
}

func (p *Poller) wait(ctx context.Context, tx Tx) (*result.ApplicationLog, error) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		res, err := p.receipt(ctx, tx.Hash)
		if err != nil || res != nil {
			return res, err
		}

		if tx.ValidUntilBlock != 0 {
			res, err = p.checkExpired(ctx, tx)
			if err != nil || res != nil {
				return res, err
			}
		}

		if timer == nil {
			timer = time.NewTimer(p.interval)
		} else {
			timer.Reset(p.interval)
		}

		select {
		case <-ctx.Done():
			return nil, ctxErr(ctx)
		case <-timer.C:
		}
	}
}

// checkExpired returns ErrExpired if the last block is not less than
// ValidUntilBlock of the transaction and the receipt is absent. Receipt is
// requested once again since it could appear along with the block.
func (p *Poller) checkExpired(ctx context.Context, tx Tx) (*result.ApplicationLog, error) {
	count, err := p.ledger.BlockCountAsync(ctx).Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("get block count: %w", ctxErrOr(ctx, err))
	}

	if count == 0 || count-1 < tx.ValidUntilBlock {
		return nil, nil
	}

	res, err := p.receipt(ctx, tx.Hash)
	if err != nil || res != nil {
		return res, err
	}

	return nil, fmt.Errorf("%w: %s (valid until %d, height %d)", ErrExpired, tx.Hash.StringLE(), tx.ValidUntilBlock, count-1)
}

func (p *Poller) receipt(ctx context.Context, h util.Uint256) (*result.ApplicationLog, error) {
	metrics.ReceiptPollsTotal.Inc()

	res, err := p.ledger.ReceiptAsync(ctx, h).Await(ctx)
	if err != nil {
		return nil, fmt.Errorf("get receipt of %s: %w", h.StringLE(), ctxErrOr(ctx, err))
	}

	return res, nil
}

// WaitAll waits for receipts of all the transactions concurrently. Receipts
// are returned in the order of txs. The first error cancels the remaining
// waits and is returned.
func (p *Poller) WaitAll(ctx context.Context, txs []Tx) ([]*result.ApplicationLog, error) {
	res := make([]*result.ApplicationLog, len(txs))

	g, gctx := errgroup.WithContext(ctx)
	for i := range txs {
		i := i
		g.Go(func() error {
			log, err := p.WaitTx(gctx, txs[i])
			if err != nil {
				return err
			}

			res[i] = log
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}

// WaitHashes is a shortcut for WaitAll with ValidUntilBlock check disabled.
func (p *Poller) WaitHashes(ctx context.Context, hashes []util.Uint256) ([]*result.ApplicationLog, error) {
	txs := make([]Tx, len(hashes))
	for i := range hashes {
		txs[i].Hash = hashes[i]
	}

	return p.WaitAll(ctx, txs)
}

func ctxErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ctx.Err()
}

func ctxErrOr(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return ctxErr(ctx)
	}
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultConfirmed
	case errors.Is(err, ErrTimeout):
		return metrics.ResultTimeout
	case errors.Is(err, ErrExpired):
		return metrics.ResultExpired
	default:
		return metrics.ResultError
	}
}
