package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/ratingsmarket/ratings-contract/rpcasync"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// testLedger returns nil receipt for the first misses[h] requests of the hash.
type testLedger struct {
	mtx     sync.Mutex
	misses  map[util.Uint256]int
	fetches map[util.Uint256]int
	errs    map[util.Uint256]error
	height  uint32
}

func newTestLedger() *testLedger {
	return &testLedger{
		misses:  make(map[util.Uint256]int),
		fetches: make(map[util.Uint256]int),
		errs:    make(map[util.Uint256]error),
	}
}

func (l *testLedger) ReceiptAsync(_ context.Context, h util.Uint256) *rpcasync.Future[*result.ApplicationLog] {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	l.fetches[h]++
	if err := l.errs[h]; err != nil {
		return rpcasync.Rejected[*result.ApplicationLog](err)
	}
	if l.fetches[h] <= l.misses[h] {
		return rpcasync.Resolved[*result.ApplicationLog](nil)
	}
	return rpcasync.Resolved(&result.ApplicationLog{Container: h})
}

func (l *testLedger) BlockCountAsync(context.Context) *rpcasync.Future[uint32] {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return rpcasync.Resolved(l.height + 1)
}

func (l *testLedger) fetchCount(h util.Uint256) int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.fetches[h]
}

func newPoller(t *testing.T, l Ledger, interval, timeout time.Duration) *Poller {
	return New(l, Prm{
		Interval: interval,
		Timeout:  timeout,
		Logger:   zaptest.NewLogger(t),
	})
}

func TestWaitRetries(t *testing.T) {
	const (
		k        = 3
		interval = 20 * time.Millisecond
	)

	l := newTestLedger()
	h := util.Uint256{1}
	l.misses[h] = k

	p := newPoller(t, l, interval, 0)

	start := time.Now()
	res, err := p.Wait(context.Background(), h)
	require.NoError(t, err)
	require.Equal(t, h, res.Container)
	require.GreaterOrEqual(t, time.Since(start), k*interval)
	require.Equal(t, k+1, l.fetchCount(h))
}

func TestWaitImmediate(t *testing.T) {
	l := newTestLedger()
	h := util.Uint256{2}

	res, err := newPoller(t, l, time.Hour, 0).Wait(context.Background(), h)
	require.NoError(t, err)
	require.Equal(t, h, res.Container)
	require.Equal(t, 1, l.fetchCount(h))
}

func TestWaitError(t *testing.T) {
	l := newTestLedger()
	h := util.Uint256{3}
	l.misses[h] = 100
	l.errs[h] = errors.New("connection refused")

	_, err := newPoller(t, l, time.Millisecond, 0).Wait(context.Background(), h)
	require.ErrorContains(t, err, "connection refused")
	require.Equal(t, 1, l.fetchCount(h))
}

func TestWaitTimeout(t *testing.T) {
	l := newTestLedger()
	h := util.Uint256{4}
	l.misses[h] = 1 << 30

	_, err := newPoller(t, l, 5*time.Millisecond, 30*time.Millisecond).Wait(context.Background(), h)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestWaitCancel(t *testing.T) {
	l := newTestLedger()
	h := util.Uint256{5}
	l.misses[h] = 1 << 30

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newPoller(t, l, 5*time.Millisecond, 0).Wait(ctx, h)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitExpired(t *testing.T) {
	l := newTestLedger()
	h := util.Uint256{6}
	l.misses[h] = 1 << 30
	l.height = 10

	p := newPoller(t, l, time.Millisecond, 0)

	_, err := p.WaitTx(context.Background(), Tx{Hash: h, ValidUntilBlock: 10})
	require.ErrorIs(t, err, ErrExpired)

	h = util.Uint256{7}
	l.misses[h] = 2
	res, err := p.WaitTx(context.Background(), Tx{Hash: h, ValidUntilBlock: 11})
	require.NoError(t, err)
	require.Equal(t, h, res.Container)
}

func TestWaitAllOrder(t *testing.T) {
	l := newTestLedger()
	hashes := []util.Uint256{{1}, {2}, {3}, {4}}
	// later transactions are confirmed earlier
	for i, h := range hashes {
		l.misses[h] = len(hashes) - i
	}

	res, err := newPoller(t, l, 2*time.Millisecond, 0).WaitHashes(context.Background(), hashes)
	require.NoError(t, err)
	require.Len(t, res, len(hashes))
	for i := range hashes {
		require.Equal(t, hashes[i], res[i].Container)
		require.Equal(t, len(hashes)-i+1, l.fetchCount(hashes[i]))
	}
}

func TestWaitAllFailFast(t *testing.T) {
	l := newTestLedger()
	ok, bad := util.Uint256{1}, util.Uint256{2}
	l.misses[ok] = 1 << 30
	l.errs[bad] = errors.New("bad request")

	_, err := newPoller(t, l, time.Millisecond, 0).WaitHashes(context.Background(), []util.Uint256{ok, bad})
	require.ErrorContains(t, err, "bad request")
}

func TestCheckHalt(t *testing.T) {
	require.Error(t, CheckHalt(nil))

	log := &result.ApplicationLog{
		Container:  util.Uint256{1},
		Executions: []state.Execution{{VMState: vmstate.Halt}},
	}
	require.NoError(t, CheckHalt(log))

	log.Executions = append(log.Executions, state.Execution{
		VMState:        vmstate.Fault,
		FaultException: "at instruction 42 (ABORT): request is not open",
	})

	err := CheckHalt(log)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, vmstate.Fault, execErr.State)
	require.Contains(t, err.Error(), "request is not open")
}
