package binder

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/ratingsmarket/ratings-contract/contracts/ratings/ratingsconst"
	"github.com/ratingsmarket/ratings-contract/poller"
	"github.com/ratingsmarket/ratings-contract/rpc/ratings"
)

// ErrZeroValue is returned on attempt to send paid operation without value.
var ErrZeroValue = errors.New("paid operation requires non-zero value")

// RequestSubmitter sends request submission transaction.
type RequestSubmitter interface {
	SubmitRequest(amount *big.Int, data []any) (util.Uint256, uint32, error)
}

// Contributor sends contribution transaction.
type Contributor interface {
	Contribute(key util.Uint256, amount *big.Int) (util.Uint256, uint32, error)
}

// Auditor sends auditor transactions.
type Auditor interface {
	Join(key util.Uint256, auditor util.Uint160) (util.Uint256, uint32, error)
	SubmitRating(key util.Uint256, auditor util.Uint160, rating *big.Int, pointer string) (util.Uint256, uint32, error)
}

// RequestForm is an input of the request for rating submission.
type RequestForm struct {
	Name        string
	Description string
	Code        string
	URL         string
	// Unix timestamp in seconds.
	Deadline    int64
	MaxAuditors int64
	Pointer     string

	// Value is the initial reward in GAS fractions.
	Value *big.Int
}

// Args returns form fields in the order they are passed to the contract.
func (f RequestForm) Args() []any {
	return ratings.SubmitRequestData(f.Name, f.Description, f.Code, f.URL, f.Deadline, f.MaxAuditors, f.Pointer)
}

// Validate checks the form against contract requirements.
func (f RequestForm) Validate() error {
	switch {
	case f.Value == nil || f.Value.Sign() <= 0:
		return ErrZeroValue
	case f.Name == "":
		return fmt.Errorf("%w: name", ErrMissingField)
	case f.Code == "":
		return fmt.Errorf("%w: code", ErrMissingField)
	case f.Deadline <= 0:
		return errors.New("deadline must be positive")
	case f.MaxAuditors <= 0 || f.MaxAuditors > ratingsconst.MaxAuditors:
		return fmt.Errorf("number of auditors must be in [1, %d]", ratingsconst.MaxAuditors)
	}

	return ValidatePointer(f.Pointer)
}

// Submit validates the form and sends it as a paid submission.
func (f RequestForm) Submit(s RequestSubmitter) (poller.Tx, error) {
	if err := f.Validate(); err != nil {
		return poller.Tx{}, err
	}

	h, vub, err := s.SubmitRequest(f.Value, f.Args())
	if err != nil {
		return poller.Tx{}, fmt.Errorf("submit request: %w", err)
	}

	return poller.Tx{Hash: h, ValidUntilBlock: vub}, nil
}

// RatingForm is an auditor response to the request.
type RatingForm struct {
	Rating  int64
	Pointer string
}

// Validate checks the form against contract requirements.
func (f RatingForm) Validate() error {
	if f.Rating < 0 || f.Rating > ratingsconst.MaxRating {
		return fmt.Errorf("rating must be in [0, %d]", ratingsconst.MaxRating)
	}

	return ValidatePointer(f.Pointer)
}

// ValidatePointer checks that content pointer is a non-empty base58 string
// like IPFS CIDv0.
func ValidatePointer(p string) error {
	if p == "" {
		return fmt.Errorf("%w: pointer", ErrMissingField)
	}

	if _, err := base58.Decode(p); err != nil {
		return fmt.Errorf("invalid content pointer %q: %w", p, err)
	}

	return nil
}
