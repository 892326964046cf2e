package main

import (
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/contracts/ratings/ratingsconst"
	"github.com/ratingsmarket/ratings-contract/eventsync"
	"github.com/stretchr/testify/require"
)

func TestParseGAS(t *testing.T) {
	v, err := parseGAS("0.1")
	require.NoError(t, err)
	require.EqualValues(t, 100*ratingsconst.Finney, v.Int64())

	v, err = parseGAS("1.5")
	require.NoError(t, err)
	require.EqualValues(t, 150_000_000, v.Int64())
	require.Equal(t, "1.5", eventsync.FormatGAS(v))

	_, err = parseGAS("")
	require.Error(t, err)

	_, err = parseGAS("one")
	require.Error(t, err)

	require.Equal(t, "0", eventsync.FormatGAS(nil))
	require.Equal(t, "0.15", eventsync.FormatGAS(big.NewInt(150*ratingsconst.Finney)))
}

func TestParseDeadline(t *testing.T) {
	v, err := parseDeadline("1485708344")
	require.NoError(t, err)
	require.EqualValues(t, 1485708344, v)

	v, err = parseDeadline("2017-01-29T16:45:44Z")
	require.NoError(t, err)
	require.EqualValues(t, 1485708344, v)

	_, err = parseDeadline("")
	require.Error(t, err)

	_, err = parseDeadline("tomorrow")
	require.Error(t, err)
}

func TestParseKey(t *testing.T) {
	key := util.Uint256{1, 2, 3}

	for _, s := range []string{key.StringLE(), "0x" + key.StringLE()} {
		actual, err := parseKey(s)
		require.NoError(t, err)
		require.Equal(t, key, actual)
	}

	_, err := parseKey("")
	require.Error(t, err)

	_, err = parseKey("abc")
	require.Error(t, err)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "open", statusString(ratingsconst.StatusOpen))
	require.Equal(t, "paid out", statusString(ratingsconst.StatusPaidOut))
	require.Equal(t, "refunded", statusString(ratingsconst.StatusRefunded))
	require.Equal(t, "unknown (7)", statusString(7))
}

func TestAppCommands(t *testing.T) {
	app := newApp(&runner{})

	for _, name := range []string{"list", "follow", "show", "submit", "contribute", "join", "rate", "payout", "refund", "balance", "deploy"} {
		require.NotNil(t, app.Command(name), name)
	}
}
