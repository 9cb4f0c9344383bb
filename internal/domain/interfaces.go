package domain

import (
	"context"
	"time"
)

// Clock supplies the current time. Services never read the ambient clock
// directly so tests can pin timestamps.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

// Repository interfaces. The pair (listing.CurrentBid, set of active bids)
// is the critical shared resource: CommitBid, EnableAuction and CloseAuction
// must each be atomic per listing and share one serialization point, so a
// commit racing a close can never land after the status flip.
type ListingRepository interface {
	CreateListing(ctx context.Context, listing *Listing) error
	GetListing(ctx context.Context, listingID string) (*Listing, error)

	// EnableAuction atomically resets the listing into a fresh active round
	// and cancels all prior-round bids. Returns the updated listing.
	EnableAuction(ctx context.Context, listingID string, startingBid float64, bidEndTime, now time.Time) (*Listing, error)

	// CommitBid conditionally accepts a bid: it persists the bid and updates
	// the listing's current bid only if, at commit time, the auction is
	// still active, now is before the deadline, and the amount still beats
	// the current price. Fails with ErrNotActive, ErrBidTooLow, or
	// ErrConflict when the conditional write lost a race and the caller
	// should re-validate and retry.
	CommitBid(ctx context.Context, bid *Bid, now time.Time) error

	// CloseAuction resolves an expired round: flips active to ended, marks the
	// highest active bid won (ties broken by earliest bid time), the rest
	// lost, and records the winner on the listing. Idempotent; a no-op when
	// the listing is already ended or not yet due. The bool reports whether
	// this call performed the transition.
	CloseAuction(ctx context.Context, listingID string, now time.Time) (*Listing, bool, error)

	// ExpiredActive returns IDs of listings whose active round has passed
	// its deadline, for the background sweep.
	ExpiredActive(ctx context.Context, now time.Time) ([]string, error)
}

type BidRepository interface {
	// BidsForListing returns the listing's bids sorted by amount descending,
	// ties by earliest bid time, joined with the bidder's name.
	BidsForListing(ctx context.Context, listingID string) ([]*ListingBid, error)

	// BidsForUser returns the user's bids sorted by bid time descending,
	// joined with the listing's name.
	BidsForUser(ctx context.Context, userID string) ([]*UserBid, error)
}

type MessageRepository interface {
	SaveMessage(ctx context.Context, msg *Message) error
	MessagesForUser(ctx context.Context, userID string) ([]*MessageView, error)

	// MarkRead flips an unread message addressed to userID. Fails with
	// ErrMessageNotFound when no such unread message exists.
	MarkRead(ctx context.Context, messageID, userID string) error
}

// Event interfaces, for the live-update pipeline.
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}

type EventSubscriber interface {
	SubscribeToBidEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *BidEvent) error

// Cache interface for the hot-path auction status projection.
type AuctionStateCache interface {
	SetAuctionStatus(ctx context.Context, listingID string, status AuctionStatus) error
	GetAuctionStatus(ctx context.Context, listingID string) (AuctionStatus, bool, error)
}

// Leader election, so only one instance runs the expiry sweep.
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// WebSocket interfaces for the stream service.
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	UserID() string
	ListingID() string
}

type ConnectionManager interface {
	RegisterConnection(userID, listingID string, conn WebSocketConnection) error
	UnregisterConnection(userID, listingID string) error
	BroadcastToListing(listingID string, message interface{}) error
	CloseAndUnregisterConnections(listingID string) error
}
