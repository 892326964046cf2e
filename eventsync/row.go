package eventsync

import (
	"math/big"
	"strconv"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Data attribute names of the request row.
const (
	AttrKey         = "key"
	AttrInvestor    = "investor"
	AttrReward      = "reward"
	AttrDeadline    = "deadline"
	AttrMaxAuditors = "max-auditors"
	AttrBlock       = "block"
	AttrTx          = "tx"
)

// GASPrecision is a number of GAS decimals.
const GASPrecision = 8

// FormatGAS formats GAS fractions as a decimal GAS amount.
func FormatGAS(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return fixedn.ToString(v, GASPrecision)
}

// Row is a single request for rating rendered in the list. Rows are built
// from RequestSubmitted notifications and updated by Contributed ones.
type Row struct {
	Key         util.Uint256
	Investor    util.Uint160
	Reward      *big.Int
	Deadline    int64
	MaxAuditors int64

	// Position of the RequestSubmitted notification in the ledger.
	Block uint32
	Tx    util.Uint256
	Index int
}

// Attributes returns data attributes of the row. Values are formatted the
// way they are shown to the user: hashes in LE, investor as Neo address.
func (r Row) Attributes() map[string]string {
	reward := "0"
	if r.Reward != nil {
		reward = r.Reward.String()
	}

	return map[string]string{
		AttrKey:         r.Key.StringLE(),
		AttrInvestor:    address.Uint160ToString(r.Investor),
		AttrReward:      reward,
		AttrDeadline:    strconv.FormatInt(r.Deadline, 10),
		AttrMaxAuditors: strconv.FormatInt(r.MaxAuditors, 10),
		AttrBlock:       strconv.FormatUint(uint64(r.Block), 10),
		AttrTx:          r.Tx.StringLE(),
	}
}
