package domain

import (
	"fmt"
	"time"
)

// The auction state of a listing lives on the listing itself: status,
// starting price, cached current price and deadline. These methods are the
// only readers callers should use to decide whether a bid can be accepted;
// they take the current time explicitly so callers control the clock.

// IsOpenForBids reports whether a bid could be accepted at instant now.
// The status flag alone is not trusted past the deadline: an expired listing
// that nothing has resolved yet is already closed for bids.
func (l *Listing) IsOpenForBids(now time.Time) bool {
	if !l.IsBiddable || l.BidStatus != StatusActive {
		return false
	}
	return l.BidEndTime != nil && now.Before(*l.BidEndTime)
}

// IsExpired reports whether an active auction has passed its deadline and is
// due for resolution.
func (l *Listing) IsExpired(now time.Time) bool {
	return l.BidStatus == StatusActive && l.BidEndTime != nil && !now.Before(*l.BidEndTime)
}

// MinimumNextBid returns the smallest amount the next bid must reach. The
// first bid may equal the starting price; after that any amount strictly
// greater than the current bid is acceptable, so the returned floor is
// exclusive once CurrentBid is set.
func (l *Listing) MinimumNextBid() float64 {
	if l.CurrentBid != nil {
		return *l.CurrentBid
	}
	if l.StartingBid != nil {
		return *l.StartingBid
	}
	return 0
}

// BeatsCurrentPrice checks the monotonicity rule for a candidate amount:
// strictly above the current bid, or at least the starting bid when no bid
// has been accepted yet.
func (l *Listing) BeatsCurrentPrice(amount float64) bool {
	if l.CurrentBid != nil {
		return amount > *l.CurrentBid
	}
	if l.StartingBid != nil {
		return amount >= *l.StartingBid
	}
	return false
}

// ValidateEnable checks the arguments for opening a fresh auction round.
func ValidateEnable(startingBid float64, bidEndTime, now time.Time) error {
	if startingBid <= 0 {
		return fmt.Errorf("%w: starting bid must be positive, got %.2f", ErrInvalidArgument, startingBid)
	}
	if !bidEndTime.After(now) {
		return fmt.Errorf("%w: bid end time must be in the future", ErrInvalidArgument)
	}
	return nil
}

// ResetAuction flips the listing into a fresh active round. Prior-round
// state (current bid, winner) is discarded; cancelling the prior-round bids
// themselves is the storage layer's job so it happens in the same atomic
// step.
func (l *Listing) ResetAuction(startingBid float64, bidEndTime, now time.Time) {
	l.IsBiddable = true
	l.BidStatus = StatusActive
	l.StartingBid = &startingBid
	l.BidEndTime = &bidEndTime
	l.CurrentBid = nil
	l.WinningBidID = nil
	l.UpdatedAt = now
}
