package eventsync

import (
	"fmt"
	"io"
	"math/big"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// View receives rows produced by Syncer. Calls are made from a single
// goroutine.
type View interface {
	// Append adds a new row to the end of the list.
	Append(Row)
	// SetReward updates reward of the already appended row. Unknown keys
	// are ignored.
	SetReward(key util.Uint256, reward *big.Int)
}

// Table is an in-memory View safe for concurrent reads.
type Table struct {
	mtx   sync.RWMutex
	rows  []Row
	index map[util.Uint256]int

	added chan struct{}
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{
		index: make(map[util.Uint256]int),
		added: make(chan struct{}, 1),
	}
}

// Append implements View.
func (t *Table) Append(r Row) {
	t.mtx.Lock()
	t.index[r.Key] = len(t.rows)
	t.rows = append(t.rows, r)
	t.mtx.Unlock()

	select {
	case t.added <- struct{}{}:
	default:
	}
}

// SetReward implements View.
func (t *Table) SetReward(key util.Uint256, reward *big.Int) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if i, ok := t.index[key]; ok {
		t.rows[i].Reward = reward
	}
}

// Added returns a channel signalled after rows are appended.
func (t *Table) Added() <-chan struct{} {
	return t.added
}

// Rows returns a copy of all rows in the order of appending.
func (t *Table) Rows() []Row {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	res := make([]Row, len(t.rows))
	copy(res, t.rows)
	return res
}

// Row returns the row with the given request key.
func (t *Table) Row(key util.Uint256) (Row, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()

	i, ok := t.index[key]
	if !ok {
		return Row{}, false
	}
	return t.rows[i], true
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return len(t.rows)
}

// Render writes rows as a text table.
func (t *Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	_, err := fmt.Fprintln(tw, "KEY\tINVESTOR\tREWARD\tDEADLINE\tAUDITORS\tBLOCK")
	if err != nil {
		return err
	}

	if err := WriteRows(tw, t.Rows()); err != nil {
		return err
	}

	return tw.Flush()
}

// WriteRows writes tab-separated table lines of the rows, one per row.
// Reward is written in GAS.
func WriteRows(w io.Writer, rows []Row) error {
	for _, r := range rows {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s GAS\t%s\t%d\t%d\n",
			r.Key.StringLE(),
			address.Uint160ToString(r.Investor),
			FormatGAS(r.Reward),
			time.Unix(r.Deadline, 0).UTC().Format(time.RFC3339),
			r.MaxAuditors,
			r.Block)
		if err != nil {
			return err
		}
	}
	return nil
}
