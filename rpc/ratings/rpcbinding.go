// Package ratings contains RPC wrappers for Ratings contract.
package ratings

import (
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep17"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/ratingsmarket/ratings-contract/contracts/ratings/ratingsconst"
)

// Request is a contract-specific ratings.Request type used by its methods.
type Request struct {
	Investor        util.Uint160
	Name            string
	Description     string
	Code            string
	URL             string
	Pointer         string
	Deadline        *big.Int
	Reward          *big.Int
	MaxAuditors     *big.Int
	AuditorCount    *big.Int
	SubmissionCount *big.Int
	Status          *big.Int
}

// Membership is a contract-specific ratings.Membership type used by its methods.
type Membership struct {
	Auditor     util.Uint160
	Joined      bool
	Rating      *big.Int
	Pointer     string
	Submissions *big.Int
}

// RequestSubmittedEvent represents "RequestSubmitted" event emitted by the contract.
type RequestSubmittedEvent struct {
	Key         util.Uint256
	Investor    util.Uint160
	Reward      *big.Int
	Deadline    *big.Int
	MaxAuditors *big.Int
}

// ContributedEvent represents "Contributed" event emitted by the contract.
type ContributedEvent struct {
	Key    util.Uint256
	From   util.Uint160
	Amount *big.Int
	Total  *big.Int
}

// AuditorJoinedEvent represents "AuditorJoined" event emitted by the contract.
type AuditorJoinedEvent struct {
	Key     util.Uint256
	Auditor util.Uint160
	Count   *big.Int
}

// RatingSubmittedEvent represents "RatingSubmitted" event emitted by the contract.
type RatingSubmittedEvent struct {
	Key     util.Uint256
	Auditor util.Uint160
	Rating  *big.Int
	Pointer string
}

// PaidOutEvent represents "PaidOut" event emitted by the contract.
type PaidOutEvent struct {
	Key    util.Uint256
	To     util.Uint160
	Amount *big.Int
}

// RefundedEvent represents "Refunded" event emitted by the contract.
type RefundedEvent struct {
	Key    util.Uint256
	To     util.Uint160
	Amount *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
	CallAndExpandIterator(contract util.Uint160, method string, maxItems int, params ...any) (*result.Invoke, error)
	TerminateSession(sessionID uuid.UUID) error
	TraverseIterator(sessionID uuid.UUID, iterator *result.Iterator, num int) ([]stackitem.Item, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
	Sender() util.Uint160
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods. Paid methods are GAS transfers
// to the contract made on behalf of the actor's sender.
type Contract struct {
	ContractReader
	actor Actor
	gas   *nep17.Token
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, gas.New(actor), hash}
}

// Hash returns the contract script hash.
func (c *ContractReader) Hash() util.Uint160 {
	return c.hash
}

// GetRequest invokes `getRequest` method of contract.
func (c *ContractReader) GetRequest(key util.Uint256) (*Request, error) {
	return itemToRequest(unwrap.Item(c.invoker.Call(c.hash, "getRequest", key)))
}

// GetMembership invokes `getMembership` method of contract.
func (c *ContractReader) GetMembership(key util.Uint256, auditor util.Uint160) (*Membership, error) {
	return itemToMembership(unwrap.Item(c.invoker.Call(c.hash, "getMembership", key, auditor)))
}

// ContributionOf invokes `contributionOf` method of contract.
func (c *ContractReader) ContributionOf(key util.Uint256, account util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "contributionOf", key, account))
}

// ListRequests invokes `listRequests` method of contract.
func (c *ContractReader) ListRequests() (uuid.UUID, result.Iterator, error) {
	return unwrap.SessionIterator(c.invoker.Call(c.hash, "listRequests"))
}

// ListRequestsExpanded is similar to ListRequests (uses the same contract
// method), but can be useful if the server used doesn't support sessions and
// doesn't expand iterators. It creates a script that will get the specified
// number of result items from the iterator right in the VM and return them to
// you. It's only limited by VM stack and GAS available for RPC invocations.
func (c *ContractReader) ListRequestsExpanded(_numOfIteratorItems int) ([]stackitem.Item, error) {
	return unwrap.Array(c.invoker.CallAndExpandIterator(c.hash, "listRequests", _numOfIteratorItems))
}

// RequestKeys returns keys of all submitted requests traversing the session
// iterator by pages of the given size. The session is always terminated.
// Page size must be positive.
func (c *ContractReader) RequestKeys(pageSize int) ([]util.Uint256, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("invalid page size %d", pageSize)
	}

	sess, iter, err := c.ListRequests()
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	defer func() { _ = c.invoker.TerminateSession(sess) }()

	var res []util.Uint256
	for {
		items, err := c.invoker.TraverseIterator(sess, &iter, pageSize)
		if err != nil {
			return nil, fmt.Errorf("traverse iterator: %w", err)
		}

		keys, err := KeysFromItems(items)
		if err != nil {
			return nil, err
		}

		res = append(res, keys...)
		if len(items) < pageSize {
			return res, nil
		}
	}
}

// KeysFromItems decodes request keys returned by listRequests iterator.
func KeysFromItems(items []stackitem.Item) ([]util.Uint256, error) {
	res := make([]util.Uint256, 0, len(items))
	for i := range items {
		k, err := itemToUint256(items[i])
		if err != nil {
			return nil, fmt.Errorf("item #%d: %w", i, err)
		}
		res = append(res, k)
	}
	return res, nil
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// SubmitRequestData returns NEP-17 transfer data of the request submission.
// Arguments keep the order expected by the contract.
func SubmitRequestData(name, description, code, url string, deadline, maxAuditors int64, pointer string) []any {
	return []any{ratingsconst.OpSubmit, name, description, code, url, deadline, maxAuditors, pointer}
}

// ContributeData returns NEP-17 transfer data of the contribution to the request.
func ContributeData(key util.Uint256) []any {
	return []any{ratingsconst.OpContribute, key}
}

// SubmitRequest creates a transaction transferring amount of GAS to the
// contract with request submission data. This transaction is signed and
// immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) SubmitRequest(amount *big.Int, data []any) (util.Uint256, uint32, error) {
	return c.gas.Transfer(c.actor.Sender(), c.hash, amount, data)
}

// SubmitRequestTransaction is the same as SubmitRequest, but the signed
// transaction is returned to the caller instead of being sent.
func (c *Contract) SubmitRequestTransaction(amount *big.Int, data []any) (*transaction.Transaction, error) {
	return c.gas.TransferTransaction(c.actor.Sender(), c.hash, amount, data)
}

// SubmitRequestUnsigned is the same as SubmitRequest, but the transaction is
// not signed, it's simply returned to the caller.
func (c *Contract) SubmitRequestUnsigned(amount *big.Int, data []any) (*transaction.Transaction, error) {
	return c.gas.TransferUnsigned(c.actor.Sender(), c.hash, amount, data)
}

// Contribute creates a transaction transferring amount of GAS to the request
// reward. This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Contribute(key util.Uint256, amount *big.Int) (util.Uint256, uint32, error) {
	return c.gas.Transfer(c.actor.Sender(), c.hash, amount, ContributeData(key))
}

// ContributeTransaction is the same as Contribute, but the signed transaction
// is returned to the caller instead of being sent.
func (c *Contract) ContributeTransaction(key util.Uint256, amount *big.Int) (*transaction.Transaction, error) {
	return c.gas.TransferTransaction(c.actor.Sender(), c.hash, amount, ContributeData(key))
}

// ContributeUnsigned is the same as Contribute, but the transaction is not
// signed, it's simply returned to the caller.
func (c *Contract) ContributeUnsigned(key util.Uint256, amount *big.Int) (*transaction.Transaction, error) {
	return c.gas.TransferUnsigned(c.actor.Sender(), c.hash, amount, ContributeData(key))
}

// Join creates a transaction invoking `join` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Join(key util.Uint256, auditor util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "join", key, auditor)
}

// JoinTransaction creates a transaction invoking `join` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) JoinTransaction(key util.Uint256, auditor util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "join", key, auditor)
}

// JoinUnsigned creates a transaction invoking `join` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) JoinUnsigned(key util.Uint256, auditor util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "join", nil, key, auditor)
}

// SubmitRating creates a transaction invoking `submitRating` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) SubmitRating(key util.Uint256, auditor util.Uint160, rating *big.Int, pointer string) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "submitRating", key, auditor, rating, pointer)
}

// SubmitRatingTransaction creates a transaction invoking `submitRating` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) SubmitRatingTransaction(key util.Uint256, auditor util.Uint160, rating *big.Int, pointer string) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "submitRating", key, auditor, rating, pointer)
}

// SubmitRatingUnsigned creates a transaction invoking `submitRating` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) SubmitRatingUnsigned(key util.Uint256, auditor util.Uint160, rating *big.Int, pointer string) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "submitRating", nil, key, auditor, rating, pointer)
}

// Payout creates a transaction invoking `payout` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Payout(key util.Uint256) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "payout", key)
}

// PayoutTransaction creates a transaction invoking `payout` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) PayoutTransaction(key util.Uint256) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "payout", key)
}

// PayoutUnsigned creates a transaction invoking `payout` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) PayoutUnsigned(key util.Uint256) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "payout", nil, key)
}

// Refund creates a transaction invoking `refund` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Refund(key util.Uint256) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "refund", key)
}

// RefundTransaction creates a transaction invoking `refund` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) RefundTransaction(key util.Uint256) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "refund", key)
}

// RefundUnsigned creates a transaction invoking `refund` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) RefundUnsigned(key util.Uint256) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "refund", nil, key)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(script []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", script, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(script []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", script, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(script []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, script, manifest, data)
}

func itemToRequest(item stackitem.Item, err error) (*Request, error) {
	if err != nil {
		return nil, err
	}
	var res = new(Request)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of Request from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *Request) FromStackItem(item stackitem.Item) error {
	arr, err := structFields(item, 12)
	if err != nil {
		return err
	}

	if res.Investor, err = itemToUint160(arr[0]); err != nil {
		return fmt.Errorf("field Investor: %w", err)
	}
	if res.Name, err = itemToUTF8(arr[1]); err != nil {
		return fmt.Errorf("field Name: %w", err)
	}
	if res.Description, err = itemToUTF8(arr[2]); err != nil {
		return fmt.Errorf("field Description: %w", err)
	}
	if res.Code, err = itemToUTF8(arr[3]); err != nil {
		return fmt.Errorf("field Code: %w", err)
	}
	if res.URL, err = itemToUTF8(arr[4]); err != nil {
		return fmt.Errorf("field URL: %w", err)
	}
	if res.Pointer, err = itemToUTF8(arr[5]); err != nil {
		return fmt.Errorf("field Pointer: %w", err)
	}
	if res.Deadline, err = arr[6].TryInteger(); err != nil {
		return fmt.Errorf("field Deadline: %w", err)
	}
	if res.Reward, err = arr[7].TryInteger(); err != nil {
		return fmt.Errorf("field Reward: %w", err)
	}
	if res.MaxAuditors, err = arr[8].TryInteger(); err != nil {
		return fmt.Errorf("field MaxAuditors: %w", err)
	}
	if res.AuditorCount, err = arr[9].TryInteger(); err != nil {
		return fmt.Errorf("field AuditorCount: %w", err)
	}
	if res.SubmissionCount, err = arr[10].TryInteger(); err != nil {
		return fmt.Errorf("field SubmissionCount: %w", err)
	}
	if res.Status, err = arr[11].TryInteger(); err != nil {
		return fmt.Errorf("field Status: %w", err)
	}

	return nil
}

func itemToMembership(item stackitem.Item, err error) (*Membership, error) {
	if err != nil {
		return nil, err
	}
	var res = new(Membership)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of Membership from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *Membership) FromStackItem(item stackitem.Item) error {
	arr, err := structFields(item, 5)
	if err != nil {
		return err
	}

	if res.Auditor, err = itemToUint160(arr[0]); err != nil {
		return fmt.Errorf("field Auditor: %w", err)
	}
	if res.Joined, err = arr[1].TryBool(); err != nil {
		return fmt.Errorf("field Joined: %w", err)
	}
	if res.Rating, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Rating: %w", err)
	}
	if res.Pointer, err = itemToUTF8(arr[3]); err != nil {
		return fmt.Errorf("field Pointer: %w", err)
	}
	if res.Submissions, err = arr[4].TryInteger(); err != nil {
		return fmt.Errorf("field Submissions: %w", err)
	}

	return nil
}

// RequestSubmittedEventsFromApplicationLog retrieves a set of all emitted events
// with "RequestSubmitted" name from the provided [result.ApplicationLog].
func RequestSubmittedEventsFromApplicationLog(log *result.ApplicationLog) ([]*RequestSubmittedEvent, error) {
	var res []*RequestSubmittedEvent
	err := eachEvent(log, ratingsconst.EventRequestSubmitted, func(item *stackitem.Array) error {
		e := new(RequestSubmittedEvent)
		res = append(res, e)
		return e.FromStackItem(item)
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to RequestSubmittedEvent or
// returns an error if it's not possible to do to so.
func (e *RequestSubmittedEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 5)
	if err != nil {
		return err
	}

	if e.Key, err = itemToUint256(arr[0]); err != nil {
		return fmt.Errorf("field Key: %w", err)
	}
	if e.Investor, err = itemToUint160(arr[1]); err != nil {
		return fmt.Errorf("field Investor: %w", err)
	}
	if e.Reward, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Reward: %w", err)
	}
	if e.Deadline, err = arr[3].TryInteger(); err != nil {
		return fmt.Errorf("field Deadline: %w", err)
	}
	if e.MaxAuditors, err = arr[4].TryInteger(); err != nil {
		return fmt.Errorf("field MaxAuditors: %w", err)
	}

	return nil
}

// ContributedEventsFromApplicationLog retrieves a set of all emitted events
// with "Contributed" name from the provided [result.ApplicationLog].
func ContributedEventsFromApplicationLog(log *result.ApplicationLog) ([]*ContributedEvent, error) {
	var res []*ContributedEvent
	err := eachEvent(log, ratingsconst.EventContributed, func(item *stackitem.Array) error {
		e := new(ContributedEvent)
		res = append(res, e)
		return e.FromStackItem(item)
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to ContributedEvent or
// returns an error if it's not possible to do to so.
func (e *ContributedEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 4)
	if err != nil {
		return err
	}

	if e.Key, err = itemToUint256(arr[0]); err != nil {
		return fmt.Errorf("field Key: %w", err)
	}
	if e.From, err = itemToUint160(arr[1]); err != nil {
		return fmt.Errorf("field From: %w", err)
	}
	if e.Amount, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}
	if e.Total, err = arr[3].TryInteger(); err != nil {
		return fmt.Errorf("field Total: %w", err)
	}

	return nil
}

// AuditorJoinedEventsFromApplicationLog retrieves a set of all emitted events
// with "AuditorJoined" name from the provided [result.ApplicationLog].
func AuditorJoinedEventsFromApplicationLog(log *result.ApplicationLog) ([]*AuditorJoinedEvent, error) {
	var res []*AuditorJoinedEvent
	err := eachEvent(log, ratingsconst.EventAuditorJoined, func(item *stackitem.Array) error {
		e := new(AuditorJoinedEvent)
		res = append(res, e)
		return e.FromStackItem(item)
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to AuditorJoinedEvent or
// returns an error if it's not possible to do to so.
func (e *AuditorJoinedEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 3)
	if err != nil {
		return err
	}

	if e.Key, err = itemToUint256(arr[0]); err != nil {
		return fmt.Errorf("field Key: %w", err)
	}
	if e.Auditor, err = itemToUint160(arr[1]); err != nil {
		return fmt.Errorf("field Auditor: %w", err)
	}
	if e.Count, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Count: %w", err)
	}

	return nil
}

// RatingSubmittedEventsFromApplicationLog retrieves a set of all emitted events
// with "RatingSubmitted" name from the provided [result.ApplicationLog].
func RatingSubmittedEventsFromApplicationLog(log *result.ApplicationLog) ([]*RatingSubmittedEvent, error) {
	var res []*RatingSubmittedEvent
	err := eachEvent(log, ratingsconst.EventRatingSubmitted, func(item *stackitem.Array) error {
		e := new(RatingSubmittedEvent)
		res = append(res, e)
		return e.FromStackItem(item)
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to RatingSubmittedEvent or
// returns an error if it's not possible to do to so.
func (e *RatingSubmittedEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := eventFields(item, 4)
	if err != nil {
		return err
	}

	if e.Key, err = itemToUint256(arr[0]); err != nil {
		return fmt.Errorf("field Key: %w", err)
	}
	if e.Auditor, err = itemToUint160(arr[1]); err != nil {
		return fmt.Errorf("field Auditor: %w", err)
	}
	if e.Rating, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Rating: %w", err)
	}
	if e.Pointer, err = itemToUTF8(arr[3]); err != nil {
		return fmt.Errorf("field Pointer: %w", err)
	}

	return nil
}

// PaidOutEventsFromApplicationLog retrieves a set of all emitted events
// with "PaidOut" name from the provided [result.ApplicationLog].
func PaidOutEventsFromApplicationLog(log *result.ApplicationLog) ([]*PaidOutEvent, error) {
	var res []*PaidOutEvent
	err := eachEvent(log, ratingsconst.EventPaidOut, func(item *stackitem.Array) error {
		e := new(PaidOutEvent)
		res = append(res, e)
		return e.FromStackItem(item)
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to PaidOutEvent or
// returns an error if it's not possible to do to so.
func (e *PaidOutEvent) FromStackItem(item *stackitem.Array) error {
	var err error
	e.Key, e.To, e.Amount, err = transferFields(item)
	return err
}

// RefundedEventsFromApplicationLog retrieves a set of all emitted events
// with "Refunded" name from the provided [result.ApplicationLog].
func RefundedEventsFromApplicationLog(log *result.ApplicationLog) ([]*RefundedEvent, error) {
	var res []*RefundedEvent
	err := eachEvent(log, ratingsconst.EventRefunded, func(item *stackitem.Array) error {
		e := new(RefundedEvent)
		res = append(res, e)
		return e.FromStackItem(item)
	})
	return res, err
}

// FromStackItem converts provided [stackitem.Array] to RefundedEvent or
// returns an error if it's not possible to do to so.
func (e *RefundedEvent) FromStackItem(item *stackitem.Array) error {
	var err error
	e.Key, e.To, e.Amount, err = transferFields(item)
	return err
}

func eachEvent(log *result.ApplicationLog, name string, f func(*stackitem.Array) error) error {
	if log == nil {
		return errors.New("nil application log")
	}

	for i, ex := range log.Executions {
		for j, e := range ex.Events {
			if e.Name != name {
				continue
			}
			if err := f(e.Item); err != nil {
				return fmt.Errorf("failed to deserialize %sEvent from stackitem (execution #%d, event #%d): %w", name, i, j, err)
			}
		}
	}

	return nil
}

func transferFields(item *stackitem.Array) (util.Uint256, util.Uint160, *big.Int, error) {
	arr, err := eventFields(item, 3)
	if err != nil {
		return util.Uint256{}, util.Uint160{}, nil, err
	}

	key, err := itemToUint256(arr[0])
	if err != nil {
		return util.Uint256{}, util.Uint160{}, nil, fmt.Errorf("field Key: %w", err)
	}
	to, err := itemToUint160(arr[1])
	if err != nil {
		return util.Uint256{}, util.Uint160{}, nil, fmt.Errorf("field To: %w", err)
	}
	amount, err := arr[2].TryInteger()
	if err != nil {
		return util.Uint256{}, util.Uint160{}, nil, fmt.Errorf("field Amount: %w", err)
	}

	return key, to, amount, nil
}

func eventFields(item *stackitem.Array, n int) ([]stackitem.Item, error) {
	if item == nil {
		return nil, errors.New("nil item")
	}
	return structFields(item, n)
}

func structFields(item stackitem.Item, n int) ([]stackitem.Item, error) {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, errors.New("not an array")
	}
	if len(arr) != n {
		return nil, errors.New("wrong number of structure elements")
	}
	return arr, nil
}

func itemToUint160(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	return util.Uint160DecodeBytesBE(b)
}

func itemToUint256(item stackitem.Item) (util.Uint256, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint256{}, err
	}
	return util.Uint256DecodeBytesBE(b)
}

func itemToUTF8(item stackitem.Item) (string, error) {
	b, err := item.TryBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("not a UTF-8 string")
	}
	return string(b), nil
}
