// Package ratingsconst contains constants shared by the Ratings contract and
// its off-chain clients.
package ratingsconst

// Request statuses.
const (
	StatusOpen = iota
	StatusPaidOut
	StatusRefunded
)

// Payment operations passed as the first element of NEP-17 transfer data.
const (
	OpSubmit     = "submit"
	OpContribute = "contribute"
)

// Notification names.
const (
	EventRequestSubmitted = "RequestSubmitted"
	EventContributed      = "Contributed"
	EventAuditorJoined    = "AuditorJoined"
	EventRatingSubmitted  = "RatingSubmitted"
	EventPaidOut          = "PaidOut"
	EventRefunded         = "Refunded"
)

const (
	// KeyLength is a length of the request key in bytes (SHA-256).
	KeyLength = 32

	// MaxAuditors limits number of auditors allowed to join a single request.
	MaxAuditors = 64

	// MaxRating is the upper bound of the rating value, lower bound is 0.
	MaxRating = 100

	// Finney is 1/1000 of GAS expressed in GAS fractions.
	Finney = 100_000
)

// Abort messages clients may match on.
const (
	ErrRequestExists      = "request already exists"
	ErrRequestNotFound    = "request not found"
	ErrRequestClosed      = "request is not open"
	ErrDeadlinePassed     = "deadline has passed"
	ErrDeadlineNotReached = "deadline has not been reached"
	ErrAuditorsFull       = "maximum number of auditors reached"
	ErrAlreadyJoined      = "auditor already joined"
	ErrNotJoined          = "auditor has not joined"
	ErrNoSubmissions      = "no ratings were submitted"
	ErrRefundDenied       = "refund is not allowed"
	ErrInvalidRating      = "rating is out of range"
	ErrOnlyGAS            = "only GAS can be accepted"
	ErrInvalidPayment     = "invalid payment data"
)
