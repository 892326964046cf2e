// Package binder connects rendered request rows with detail modals and turns
// user input into contract transactions.
package binder

import (
	"errors"
	"fmt"
	"maps"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/eventsync"
)

// ErrMissingField is returned when a required attribute is absent in the
// detail snapshot.
var ErrMissingField = errors.New("missing field")

// Detail is an immutable snapshot of data attributes of the row the modal was
// opened for.
type Detail struct {
	attrs map[string]string
}

// Snapshot copies attributes of the row.
func Snapshot(r eventsync.Row) Detail {
	return Detail{attrs: r.Attributes()}
}

// FromAttributes copies the given attributes into a new Detail.
func FromAttributes(attrs map[string]string) Detail {
	return Detail{attrs: maps.Clone(attrs)}
}

// Field returns attribute value or an empty string if there is no such
// attribute.
func (d Detail) Field(name string) string {
	return d.attrs[name]
}

// Require returns attribute value or ErrMissingField.
func (d Detail) Require(name string) (string, error) {
	v, ok := d.attrs[name]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return v, nil
}

// Fields returns a copy of all attributes.
func (d Detail) Fields() map[string]string {
	return maps.Clone(d.attrs)
}

// Key decodes request key attribute.
func (d Detail) Key() (util.Uint256, error) {
	s, err := d.Require(eventsync.AttrKey)
	if err != nil {
		return util.Uint256{}, err
	}

	k, err := util.Uint256DecodeStringLE(s)
	if err != nil {
		return util.Uint256{}, fmt.Errorf("invalid request key %q: %w", s, err)
	}
	return k, nil
}
