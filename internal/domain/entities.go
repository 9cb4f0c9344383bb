package domain

import (
	"time"
)

// AuctionStatus is the lifecycle of bidding on a listing. A listing is
// created with bidding off (StatusNotStarted); enabling bidding moves it to
// StatusActive, and expiry resolution moves it to StatusEnded.
type AuctionStatus string

const (
	StatusNotStarted AuctionStatus = "not_started"
	StatusActive     AuctionStatus = "active"
	StatusEnded      AuctionStatus = "ended"
)

// BidStatus tracks a bid through an auction round. Bids are immutable after
// creation except for this field, which only resolution (won/lost) or a
// re-enable sweep (cancelled) may change.
type BidStatus string

const (
	BidActive    BidStatus = "active"
	BidWon       BidStatus = "won"
	BidLost      BidStatus = "lost"
	BidCancelled BidStatus = "cancelled"
)

// Listing is a marketplace product, optionally open for auction. The bidding
// fields are nil whenever IsBiddable is false.
type Listing struct {
	ID        string
	OwnerID   string
	Name      string
	Price     float64
	Stock     int
	Publish   bool
	CreatedAt time.Time
	UpdatedAt time.Time

	IsBiddable   bool
	StartingBid  *float64
	CurrentBid   *float64
	BidEndTime   *time.Time
	BidStatus    AuctionStatus
	WinningBidID *string
}

// Bid is a single offer on a listing.
type Bid struct {
	ID        string
	ListingID string
	BidderID  string
	Amount    float64
	Status    BidStatus
	BidTime   time.Time
}

// ListingBid is a bid joined with the bidder's display name, for the
// per-listing bid history. Only the name is exposed, never credentials.
type ListingBid struct {
	Bid
	BidderName string
}

// UserBid is a bid joined with the listing's display name, for a bidder's
// own history.
type UserBid struct {
	Bid
	ListingName string
}

// Message is a buyer-seller direct message scoped to a listing.
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	ListingID  string
	Content    string
	Read       bool
	CreatedAt  time.Time
}

// MessageView is a message joined with sender/receiver names and the listing
// name for display.
type MessageView struct {
	Message
	SenderName   string
	ReceiverName string
	ListingName  string
}

// User is the minimal identity projection the marketplace keeps: identity is
// verified upstream by the auth layer, this is display data only.
type User struct {
	ID    string
	Name  string
	Email string
}

type BidEvent struct {
	Type      BidEventType `json:"type"`
	ListingID string       `json:"listing_id"`
	UserID    string       `json:"user_id"`
	Amount    float64      `json:"amount"`
	Timestamp time.Time    `json:"timestamp"`
}

type BidEventType string

const (
	BidAccepted  BidEventType = "bid_accepted"
	BidRejected  BidEventType = "bid_rejected"
	AuctionEnded BidEventType = "auction_ended"
)
