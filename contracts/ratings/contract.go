package ratings

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/crypto"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/ratingsmarket/ratings-contract/common"
	"github.com/ratingsmarket/ratings-contract/contracts/ratings/ratingsconst"
)

type (
	// Request is a request for rating posted by an investor.
	Request struct {
		Investor    interop.Hash160
		Name        string
		Description string
		Code        string
		URL         string
		Pointer     string
		// Unix timestamp in seconds.
		Deadline int
		// Total amount of GAS fractions contributed to the request.
		Reward          int
		MaxAuditors     int
		AuditorCount    int
		SubmissionCount int
		Status          int
	}

	// Membership describes participation of the auditor in a request.
	Membership struct {
		Auditor     interop.Hash160
		Joined      bool
		Rating      int
		Pointer     string
		Submissions int
	}

	// Contribution is a total amount of GAS sent to the request by an account.
	Contribution struct {
		Account interop.Hash160
		Amount  int
	}
)

const (
	requestPrefix      = 'r'
	membershipPrefix   = 'm'
	contributionPrefix = 'c'

	submitArgsLen     = 8
	contributeArgsLen = 2
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	runtime.Log("ratings contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(script []byte, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, script, manifest, common.AppendVersion(data))
	runtime.Log("ratings contract updated")
}

// OnNEP17Payment is a callback for NEP-17 compatible native GAS contract. Every
// paid operation of the contract is a GAS transfer with data array, the first
// element of which is an operation name:
//
//	["submit", name, description, code, url, deadline, maxAuditors, pointer]
//	["contribute", key]
//
// Submit produces RequestSubmitted notification, contribute produces
// Contributed notification.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(gas.Hash) {
		common.AbortWithMessage(ratingsconst.ErrOnlyGAS)
	}

	if amount <= 0 {
		common.AbortWithMessage("amount must be positive")
	}

	if data == nil {
		common.AbortWithMessage(ratingsconst.ErrInvalidPayment)
	}

	args := data.([]any)
	if len(args) == 0 {
		common.AbortWithMessage(ratingsconst.ErrInvalidPayment)
	}

	ctx := storage.GetContext()

	switch args[0].(string) {
	case ratingsconst.OpSubmit:
		submitRequest(ctx, from, amount, args)
	case ratingsconst.OpContribute:
		contribute(ctx, from, amount, args)
	default:
		common.AbortWithMessage(ratingsconst.ErrInvalidPayment)
	}
}

func submitRequest(ctx storage.Context, investor interop.Hash160, amount int, args []any) {
	if len(args) != submitArgsLen {
		panic(ratingsconst.ErrInvalidPayment)
	}

	req := Request{
		Investor:    investor,
		Name:        args[1].(string),
		Description: args[2].(string),
		Code:        args[3].(string),
		URL:         args[4].(string),
		Deadline:    args[5].(int),
		MaxAuditors: args[6].(int),
		Pointer:     args[7].(string),
		Reward:      amount,
		Status:      ratingsconst.StatusOpen,
	}

	switch {
	case len(req.Name) == 0:
		panic("empty request name")
	case len(req.Code) == 0:
		panic("empty request code")
	case len(req.Pointer) == 0:
		panic("empty content pointer")
	case req.Deadline <= 0:
		panic("invalid deadline")
	case req.MaxAuditors <= 0 || req.MaxAuditors > ratingsconst.MaxAuditors:
		panic("invalid number of auditors")
	}

	key := requestKey(investor, req.Code, req.Name, req.Pointer, req.Deadline)
	if storage.Get(ctx, storageKey(requestPrefix, key)) != nil {
		panic(ratingsconst.ErrRequestExists)
	}

	putRequest(ctx, key, req)
	addContribution(ctx, key, investor, amount)

	runtime.Log("request for rating has been submitted")
	runtime.Notify(ratingsconst.EventRequestSubmitted, key, investor, amount, req.Deadline, req.MaxAuditors)
}

func contribute(ctx storage.Context, from interop.Hash160, amount int, args []any) {
	if len(args) != contributeArgsLen {
		panic(ratingsconst.ErrInvalidPayment)
	}

	key := args[1].(interop.Hash256)
	checkKey(key)

	req := getRequest(ctx, key)
	if req.Status != ratingsconst.StatusOpen {
		panic(ratingsconst.ErrRequestClosed)
	}

	req.Reward = req.Reward + amount
	putRequest(ctx, key, req)
	addContribution(ctx, key, from, amount)

	runtime.Notify(ratingsconst.EventContributed, key, from, amount, req.Reward)
}

// Join registers auditor as a participant of the request. It can be invoked
// only by the auditor before the request deadline while there are free auditor
// slots.
//
// It produces AuditorJoined notification.
func Join(key interop.Hash256, auditor interop.Hash160) {
	checkKey(key)
	common.CheckWitness(auditor)

	ctx := storage.GetContext()

	req := getRequest(ctx, key)
	switch {
	case req.Status != ratingsconst.StatusOpen:
		panic(ratingsconst.ErrRequestClosed)
	case now() >= req.Deadline:
		panic(ratingsconst.ErrDeadlinePassed)
	case req.Investor.Equals(auditor):
		panic("investor can't audit own request")
	case req.AuditorCount >= req.MaxAuditors:
		panic(ratingsconst.ErrAuditorsFull)
	}

	mKey := membershipKey(key, auditor)
	if storage.Get(ctx, mKey) != nil {
		panic(ratingsconst.ErrAlreadyJoined)
	}

	common.SetSerialized(ctx, mKey, Membership{
		Auditor: auditor,
		Joined:  true,
	})

	req.AuditorCount = req.AuditorCount + 1
	putRequest(ctx, key, req)

	runtime.Notify(ratingsconst.EventAuditorJoined, key, auditor, req.AuditorCount)
}

// SubmitRating stores rating of the joined auditor along with a pointer to the
// analysis content. Auditor can resubmit the rating until the deadline, the
// latest submission wins.
//
// It produces RatingSubmitted notification.
func SubmitRating(key interop.Hash256, auditor interop.Hash160, rating int, pointer string) {
	checkKey(key)
	common.CheckWitness(auditor)

	if rating < 0 || rating > ratingsconst.MaxRating {
		panic(ratingsconst.ErrInvalidRating)
	}

	if len(pointer) == 0 {
		panic("empty content pointer")
	}

	ctx := storage.GetContext()

	req := getRequest(ctx, key)
	if req.Status != ratingsconst.StatusOpen {
		panic(ratingsconst.ErrRequestClosed)
	}

	if now() >= req.Deadline {
		panic(ratingsconst.ErrDeadlinePassed)
	}

	mKey := membershipKey(key, auditor)
	raw := common.GetSerialized(ctx, mKey)
	if raw == nil {
		panic(ratingsconst.ErrNotJoined)
	}

	m := raw.(Membership)
	if m.Submissions == 0 {
		req.SubmissionCount = req.SubmissionCount + 1
		putRequest(ctx, key, req)
	}

	m.Rating = rating
	m.Pointer = pointer
	m.Submissions = m.Submissions + 1
	common.SetSerialized(ctx, mKey, m)

	runtime.Notify(ratingsconst.EventRatingSubmitted, key, auditor, rating, pointer)
}

// Payout distributes the request reward between auditors who submitted a
// rating. It can be invoked by anyone once the deadline has been reached. The
// reward is split evenly, the remainder of the division is returned to the
// investor.
//
// It produces PaidOut notification per transfer, zero shares are not
// transferred.
func Payout(key interop.Hash256) {
	checkKey(key)

	ctx := storage.GetContext()

	req := getRequest(ctx, key)
	switch {
	case req.Status != ratingsconst.StatusOpen:
		panic(ratingsconst.ErrRequestClosed)
	case now() < req.Deadline:
		panic(ratingsconst.ErrDeadlineNotReached)
	case req.SubmissionCount == 0:
		panic(ratingsconst.ErrNoSubmissions)
	}

	share := req.Reward / req.SubmissionCount
	rest := req.Reward - share*req.SubmissionCount

	// status is switched before any transfer so that recipients can't reenter
	req.Status = ratingsconst.StatusPaidOut
	putRequest(ctx, key, req)

	it := storage.Find(ctx, storageKey(membershipPrefix, key), storage.ValuesOnly|storage.DeserializeValues)
	for iterator.Next(it) {
		m := iterator.Value(it).(Membership)
		if m.Submissions == 0 {
			continue
		}

		if share > 0 {
			common.TransferGAS(m.Auditor, share, key)
			runtime.Notify(ratingsconst.EventPaidOut, key, m.Auditor, share)
		}
	}

	if rest > 0 {
		common.TransferGAS(req.Investor, rest, key)
		runtime.Notify(ratingsconst.EventPaidOut, key, req.Investor, rest)
	}
}

// Refund returns all contributions of the request back to the contributors.
// It is allowed after the deadline if nobody submitted a rating, or at any time
// by the investor while no auditor has joined.
//
// It produces Refunded notification per transfer.
func Refund(key interop.Hash256) {
	checkKey(key)

	ctx := storage.GetContext()

	req := getRequest(ctx, key)
	if req.Status != ratingsconst.StatusOpen {
		panic(ratingsconst.ErrRequestClosed)
	}

	expired := now() >= req.Deadline && req.SubmissionCount == 0
	if !expired && (req.AuditorCount != 0 || !runtime.CheckWitness(req.Investor)) {
		panic(ratingsconst.ErrRefundDenied)
	}

	req.Status = ratingsconst.StatusRefunded
	putRequest(ctx, key, req)

	it := storage.Find(ctx, storageKey(contributionPrefix, key), storage.ValuesOnly|storage.DeserializeValues)
	for iterator.Next(it) {
		c := iterator.Value(it).(Contribution)

		common.TransferGAS(c.Account, c.Amount, key)
		runtime.Notify(ratingsconst.EventRefunded, key, c.Account, c.Amount)
	}
}

// GetRequest returns request for rating by its key.
func GetRequest(key interop.Hash256) Request {
	checkKey(key)

	ctx := storage.GetReadOnlyContext()
	return getRequest(ctx, key)
}

// GetMembership returns membership of the auditor in the request. Joined field
// of the result is false if the auditor has never joined the request.
func GetMembership(key interop.Hash256, auditor interop.Hash160) Membership {
	ctx := storage.GetReadOnlyContext()

	raw := common.GetSerialized(ctx, membershipKey(key, auditor))
	if raw == nil {
		return Membership{Auditor: auditor}
	}

	return raw.(Membership)
}

// ContributionOf returns total amount of GAS contributed by the account to the
// request.
func ContributionOf(key interop.Hash256, account interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()

	raw := common.GetSerialized(ctx, contributionKey(key, account))
	if raw == nil {
		return 0
	}

	return raw.(Contribution).Amount
}

// ListRequests returns iterator over keys of all submitted requests.
func ListRequests() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, []byte{requestPrefix}, storage.KeysOnly|storage.RemovePrefix)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func requestKey(investor interop.Hash160, code, name, pointer string, deadline int) interop.Hash256 {
	data := append([]byte{}, investor...)
	data = append(data, []byte(code)...)
	data = append(data, []byte(name)...)
	data = append(data, []byte(pointer)...)
	data = append(data, []byte(std.Itoa(deadline, 10))...)

	return crypto.Sha256(data)
}

func getRequest(ctx storage.Context, key []byte) Request {
	raw := common.GetSerialized(ctx, storageKey(requestPrefix, key))
	if raw == nil {
		panic(ratingsconst.ErrRequestNotFound)
	}

	return raw.(Request)
}

func putRequest(ctx storage.Context, key []byte, req Request) {
	common.SetSerialized(ctx, storageKey(requestPrefix, key), req)
}

func addContribution(ctx storage.Context, key []byte, from interop.Hash160, amount int) {
	cKey := contributionKey(key, from)

	c := Contribution{Account: from}
	if raw := common.GetSerialized(ctx, cKey); raw != nil {
		c = raw.(Contribution)
	}

	c.Amount = c.Amount + amount
	common.SetSerialized(ctx, cKey, c)
}

func storageKey(prefix byte, key []byte) []byte {
	return append([]byte{prefix}, key...)
}

func membershipKey(key []byte, auditor interop.Hash160) []byte {
	return append(storageKey(membershipPrefix, key), auditor...)
}

func contributionKey(key []byte, account interop.Hash160) []byte {
	return append(storageKey(contributionPrefix, key), account...)
}

func checkKey(key []byte) {
	if len(key) != ratingsconst.KeyLength {
		panic("invalid request key")
	}
}

// now returns current block time in seconds.
func now() int {
	return runtime.GetTime() / 1000
}
