package viewdb

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/eventsync"
	"github.com/stretchr/testify/require"
)

var testScope = Scope{Network: netmode.UnitTestNet, Contract: util.Uint160{0xaa}}

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "view", "ratings.db")

	s, err := Open(path, testScope)
	require.NoError(t, err)

	_, _, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	r1 := eventsync.Row{
		Key:         util.Uint256{1},
		Investor:    util.Uint160{2},
		Reward:      big.NewInt(10_000_000),
		Deadline:    1485708344,
		MaxAuditors: 1,
		Block:       5,
		Tx:          util.Uint256{3},
		Index:       2,
	}
	r2 := r1
	r2.Key = util.Uint256{4}
	r2.Block = 6

	require.NoError(t, s.Save(ctx, []eventsync.Row{r1}, nil, 5))
	require.NoError(t, s.Save(ctx, []eventsync.Row{r2, r1}, []eventsync.RewardUpdate{
		{Key: r1.Key, Reward: big.NewInt(15_000_000)},
	}, 7))
	require.NoError(t, s.Close())

	s, err = Open(path, testScope)
	require.NoError(t, err)
	require.False(t, s.Reset())
	t.Cleanup(func() { _ = s.Close() })

	rows, cursor, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 7, cursor)
	require.Len(t, rows, 2)

	r1.Reward = big.NewInt(15_000_000)
	require.Equal(t, r1, rows[0])
	require.Equal(t, r2, rows[1])
}

func TestStoreScope(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ratings.db")

	s, err := Open(path, testScope)
	require.NoError(t, err)
	require.False(t, s.Reset())

	row := eventsync.Row{
		Key:      util.Uint256{0xaa},
		Investor: util.Uint160{1},
		Reward:   big.NewInt(1),
		Block:    500,
	}
	require.NoError(t, s.Save(ctx, []eventsync.Row{row}, nil, 500))
	require.NoError(t, s.Close())

	for name, scope := range map[string]Scope{
		"contract": {Network: testScope.Network, Contract: util.Uint160{0xbb}},
		"network":  {Network: netmode.TestNet, Contract: testScope.Contract},
	} {
		t.Run(name, func(t *testing.T) {
			s, err := Open(path, testScope)
			require.NoError(t, err)
			require.NoError(t, s.Save(ctx, []eventsync.Row{row}, nil, 500))
			require.NoError(t, s.Close())

			s, err = Open(path, scope)
			require.NoError(t, err)
			require.True(t, s.Reset())

			rows, cursor, ok, err := s.Load(ctx)
			require.NoError(t, err)
			require.False(t, ok)
			require.Zero(t, cursor)
			require.Empty(t, rows)

			row2 := row
			row2.Key = util.Uint256{0xbb}
			require.NoError(t, s.Save(ctx, []eventsync.Row{row2}, nil, 10))
			require.NoError(t, s.Close())

			s, err = Open(path, scope)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			require.False(t, s.Reset())

			rows, cursor, ok, err = s.Load(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			require.EqualValues(t, 10, cursor)
			require.Equal(t, []eventsync.Row{row2}, rows)
		})
	}
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open("", testScope)
	require.Error(t, err)
}
