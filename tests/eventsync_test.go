package tests

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/binder"
	"github.com/ratingsmarket/ratings-contract/contracts/ratings/ratingsconst"
	"github.com/ratingsmarket/ratings-contract/eventsync"
	"github.com/ratingsmarket/ratings-contract/viewdb"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEventSync(t *testing.T) {
	r := newRatingsEnv(t)
	investor := r.e.NewAccount(t)
	deadline := r.now(t) + 100

	var keys []util.Uint256
	for _, name := range []string{"first", "second", "third"} {
		key, _ := r.submit(t, investor, ratingsconst.Finney, r.params(name, deadline, 1))
		keys = append(keys, key)
	}

	dbPath := filepath.Join(t.TempDir(), "view.db")

	newSyncer := func(view eventsync.View) (*eventsync.Syncer, *viewdb.Store) {
		st, err := viewdb.Open(dbPath, viewdb.Scope{Network: netmode.UnitTestNet, Contract: r.hash})
		require.NoError(t, err)

		s, err := eventsync.New(eventsync.Prm{
			Chain:    ledger{r.e.Chain},
			Contract: r.hash,
			View:     view,
			Store:    st,
			Interval: 10 * time.Millisecond,
			Logger:   zaptest.NewLogger(t),
		})
		require.NoError(t, err)

		return s, st
	}

	table := eventsync.NewTable()
	s, st := newSyncer(table)

	require.NoError(t, s.History(context.Background()))
	requireKeys(t, keys, table)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Live(ctx) }()

	key, _ := r.submit(t, investor, ratingsconst.Finney, r.params("fourth", deadline, 1))
	keys = append(keys, key)
	r.contribute(t, r.e.NewAccount(t), keys[0], 2*ratingsconst.Finney)

	require.Eventually(t, func() bool {
		row, ok := table.Row(keys[0])
		return table.Len() == len(keys) && ok && row.Reward.Int64() == 3*ratingsconst.Finney
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.True(t, errors.Is(<-done, context.Canceled))
	require.NoError(t, st.Close())

	requireKeys(t, keys, table)

	t.Run("modal", func(t *testing.T) {
		row, ok := table.Row(keys[1])
		require.True(t, ok)

		m := binder.Open(row)
		key, err := m.Detail().Key()
		require.NoError(t, err)
		require.Equal(t, keys[1], key)
		require.Equal(t, "100000", m.Detail().Field(eventsync.AttrReward))

		req := r.getRequest(t, key)
		require.Equal(t, "second", req.Name)
	})

	t.Run("resume", func(t *testing.T) {
		restored := eventsync.NewTable()
		s, st := newSyncer(restored)
		t.Cleanup(func() { _ = st.Close() })

		require.NoError(t, s.History(context.Background()))
		requireKeys(t, keys, restored)

		row, ok := restored.Row(keys[0])
		require.True(t, ok)
		require.EqualValues(t, 3*ratingsconst.Finney, row.Reward.Int64())
	})
}

func requireKeys(t *testing.T, expected []util.Uint256, table *eventsync.Table) {
	rows := table.Rows()
	require.Len(t, rows, len(expected))
	for i := range rows {
		require.Equal(t, expected[i], rows[i].Key, i)
	}
}
