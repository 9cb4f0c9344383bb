package domain

import "errors"

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrBidNotFound     = errors.New("bid not found")
	ErrMessageNotFound = errors.New("message not found")

	ErrForbidden       = errors.New("caller is not the listing owner")
	ErrNotBiddable     = errors.New("listing is not available for bidding")
	ErrNotActive       = errors.New("bidding is not active for this listing")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrBidTooLow       = errors.New("bid amount too low")
	ErrSelfMessage     = errors.New("cannot send a message to yourself")

	// ErrConflict means a conditional commit lost the per-listing race and
	// may be retried against fresh state.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrUnavailable wraps storage connectivity failures.
	ErrUnavailable = errors.New("storage unavailable")
)
