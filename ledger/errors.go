package ledger

import "errors"

// Every rejected operation surfaces one of these sentinels (wrapped with
// context) and leaves ledger state exactly as it was before the call.
var (
	// ErrUnauthorized is returned when the caller lacks the role an
	// operation is gated on.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned for an unknown item id.
	ErrNotFound = errors.New("item not found")

	// ErrAuctionNotActive is returned when an operation requires an Active
	// item, including a second finalization attempt.
	ErrAuctionNotActive = errors.New("auction not active")

	// ErrBidTooLow is returned when a bid fails the strict-increase rule.
	// Ties with the current leading bid are rejected.
	ErrBidTooLow = errors.New("bid too low")

	// ErrNoBids is returned when finalization is attempted on an item with
	// no accepted bids.
	ErrNoBids = errors.New("no bids")

	// ErrOverflow is returned when amount arithmetic would overflow the
	// integral representation.
	ErrOverflow = errors.New("amount overflow")

	// ErrInvalidItem is returned for a listing with an empty description.
	ErrInvalidItem = errors.New("invalid item")

	// ErrInsufficientBalance is returned by Withdraw when the account's
	// credited balance does not cover the requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
