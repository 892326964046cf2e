package binder

import (
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/eventsync"
	"github.com/ratingsmarket/ratings-contract/poller"
)

// Modal is a detail dialog opened for a single request row. Every action of
// the modal works with the snapshot taken on opening.
type Modal struct {
	detail Detail
}

// Open opens modal for the row.
func Open(r eventsync.Row) *Modal {
	return &Modal{detail: Snapshot(r)}
}

// OpenAttributes opens modal for the row described by data attributes.
func OpenAttributes(attrs map[string]string) *Modal {
	return &Modal{detail: FromAttributes(attrs)}
}

// Detail returns the snapshot of the row.
func (m *Modal) Detail() Detail {
	return m.detail
}

// Contribute sends amount of GAS to the request reward.
func (m *Modal) Contribute(c Contributor, amount *big.Int) (poller.Tx, error) {
	if amount == nil || amount.Sign() <= 0 {
		return poller.Tx{}, ErrZeroValue
	}

	key, err := m.detail.Key()
	if err != nil {
		return poller.Tx{}, err
	}

	h, vub, err := c.Contribute(key, amount)
	if err != nil {
		return poller.Tx{}, fmt.Errorf("contribute: %w", err)
	}

	return poller.Tx{Hash: h, ValidUntilBlock: vub}, nil
}

// Join registers the auditor in the request.
func (m *Modal) Join(a Auditor, auditor util.Uint160) (poller.Tx, error) {
	key, err := m.detail.Key()
	if err != nil {
		return poller.Tx{}, err
	}

	h, vub, err := a.Join(key, auditor)
	if err != nil {
		return poller.Tx{}, fmt.Errorf("join: %w", err)
	}

	return poller.Tx{Hash: h, ValidUntilBlock: vub}, nil
}

// Respond submits the rating of the auditor.
func (m *Modal) Respond(a Auditor, auditor util.Uint160, f RatingForm) (poller.Tx, error) {
	if err := f.Validate(); err != nil {
		return poller.Tx{}, err
	}

	key, err := m.detail.Key()
	if err != nil {
		return poller.Tx{}, err
	}

	h, vub, err := a.SubmitRating(key, auditor, big.NewInt(f.Rating), f.Pointer)
	if err != nil {
		return poller.Tx{}, fmt.Errorf("submit rating: %w", err)
	}

	return poller.Tx{Hash: h, ValidUntilBlock: vub}, nil
}
