package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"marketplace-system/internal/domain"
	"marketplace-system/pkg/logger"
	"marketplace-system/pkg/utils"
)

// maxCommitRetries bounds how often a bid is re-validated after losing a
// conditional-commit race before the conflict surfaces to the caller.
const maxCommitRetries = 3

// BiddingEngine implements the auction protocol: enabling a round, accepting
// monotonically increasing bids, and resolving expiry. It never reads the
// ambient clock; all time comparisons go through the injected Clock.
type BiddingEngine struct {
	listings   domain.ListingRepository
	bids       domain.BidRepository
	stateCache domain.AuctionStateCache // optional
	events     domain.EventPublisher    // optional
	now        domain.Clock
	log        logger.Logger
}

func NewBiddingEngine(
	listings domain.ListingRepository,
	bids domain.BidRepository,
	stateCache domain.AuctionStateCache,
	events domain.EventPublisher,
	clock domain.Clock,
	log logger.Logger,
) *BiddingEngine {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &BiddingEngine{
		listings:   listings,
		bids:       bids,
		stateCache: stateCache,
		events:     events,
		now:        clock,
		log:        log,
	}
}

// EnableBidding opens a fresh auction round on the caller's own listing.
// Re-enabling always resets prior round state and cancels prior bids.
func (e *BiddingEngine) EnableBidding(ctx context.Context, listingID, callerID string, startingBid float64, bidEndTime time.Time) (*domain.Listing, error) {
	listing, err := e.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("enable bidding: %w", err)
	}

	if listing.OwnerID != callerID {
		return nil, fmt.Errorf("enable bidding on %s: %w", listingID, domain.ErrForbidden)
	}

	now := e.now()
	if err := domain.ValidateEnable(startingBid, bidEndTime, now); err != nil {
		return nil, fmt.Errorf("enable bidding on %s: %w", listingID, err)
	}

	updated, err := e.listings.EnableAuction(ctx, listingID, startingBid, bidEndTime, now)
	if err != nil {
		return nil, fmt.Errorf("enable bidding on %s: %w", listingID, err)
	}

	e.cacheStatus(ctx, listingID, domain.StatusActive)
	e.log.Info("Bidding enabled",
		"listing_id", listingID, "starting_bid", startingBid, "bid_end_time", bidEndTime)
	return updated, nil
}

// PlaceBid validates and commits a bid. Precondition failures are reported
// in a fixed order: listing missing, not biddable, round not active, invalid
// amount, amount too low. The actual acceptance decision is made inside the
// repository's conditional commit so two racing bids can never both pass
// against the same stale current bid, and a bid can never land after the
// deadline even if the status flag has not been flipped yet.
func (e *BiddingEngine) PlaceBid(ctx context.Context, listingID, bidderID string, amount float64) (*domain.Bid, error) {
	listing, err := e.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("place bid: %w", err)
	}

	now := e.now()

	// Lazy expiry: the deadline is authoritative, the status flag is only a
	// cached projection of it.
	if listing.IsExpired(now) {
		if listing, err = e.resolve(ctx, listingID, now); err != nil {
			return nil, fmt.Errorf("place bid: %w", err)
		}
	}

	if err := e.validateBid(listing, amount, now); err != nil {
		e.publishEvent(ctx, domain.BidRejected, listingID, bidderID, amount)
		return nil, err
	}

	bid := &domain.Bid{
		ID:        utils.GenerateID("bid"),
		ListingID: listingID,
		BidderID:  bidderID,
		Amount:    amount,
		Status:    domain.BidActive,
		BidTime:   now,
	}

	for attempt := 0; ; attempt++ {
		err = e.listings.CommitBid(ctx, bid, now)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= maxCommitRetries {
			e.publishEvent(ctx, domain.BidRejected, listingID, bidderID, amount)
			return nil, fmt.Errorf("place bid on %s: %w", listingID, err)
		}

		// Lost the serialization race; re-validate against fresh state so
		// the retry fails fast when the new current bid already exceeds
		// this amount.
		if listing, err = e.listings.GetListing(ctx, listingID); err != nil {
			return nil, fmt.Errorf("place bid: %w", err)
		}
		if err = e.validateBid(listing, amount, e.now()); err != nil {
			e.publishEvent(ctx, domain.BidRejected, listingID, bidderID, amount)
			return nil, err
		}
	}

	e.publishEvent(ctx, domain.BidAccepted, listingID, bidderID, amount)
	e.log.Info("Bid placed",
		"listing_id", listingID, "bid_id", bid.ID, "bidder_id", bidderID, "amount", amount)
	return bid, nil
}

func (e *BiddingEngine) validateBid(listing *domain.Listing, amount float64, now time.Time) error {
	if !listing.IsBiddable {
		return fmt.Errorf("place bid on %s: %w", listing.ID, domain.ErrNotBiddable)
	}
	if listing.BidStatus != domain.StatusActive || !listing.IsOpenForBids(now) {
		return fmt.Errorf("place bid on %s: %w", listing.ID, domain.ErrNotActive)
	}
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("place bid on %s: %w: amount %v", listing.ID, domain.ErrInvalidArgument, amount)
	}
	if !listing.BeatsCurrentPrice(amount) {
		return fmt.Errorf("place bid on %s: %w (minimum %.2f)", listing.ID, domain.ErrBidTooLow, listing.MinimumNextBid())
	}
	return nil
}

// ResolveExpiry closes an auction whose deadline has passed: the highest
// active bid wins, the rest lose, and the listing records the winner.
// Idempotent; safe to call from the read path, PlaceBid, and the sweeper
// concurrently.
func (e *BiddingEngine) ResolveExpiry(ctx context.Context, listingID string) (*domain.Listing, error) {
	listing, err := e.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("resolve expiry: %w", err)
	}

	now := e.now()
	if !listing.IsExpired(now) {
		return listing, nil
	}
	return e.resolve(ctx, listingID, now)
}

func (e *BiddingEngine) resolve(ctx context.Context, listingID string, now time.Time) (*domain.Listing, error) {
	closed, transitioned, err := e.listings.CloseAuction(ctx, listingID, now)
	if err != nil {
		return nil, fmt.Errorf("resolve expiry on %s: %w", listingID, err)
	}

	if transitioned {
		e.cacheStatus(ctx, listingID, domain.StatusEnded)
		e.publishEvent(ctx, domain.AuctionEnded, listingID, "", 0)

		winner := ""
		if closed.WinningBidID != nil {
			winner = *closed.WinningBidID
		}
		e.log.Info("Auction resolved", "listing_id", listingID, "winning_bid_id", winner)
	}
	return closed, nil
}

// ListBidsForProduct returns the bid history of a listing, highest amount
// first, ties by earliest bid time, with bidder names attached. Reading an
// expired listing resolves it first.
func (e *BiddingEngine) ListBidsForProduct(ctx context.Context, listingID string) ([]*domain.ListingBid, error) {
	listing, err := e.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}

	if now := e.now(); listing.IsExpired(now) {
		if _, err = e.resolve(ctx, listingID, now); err != nil {
			return nil, fmt.Errorf("list bids: %w", err)
		}
	}

	bids, err := e.bids.BidsForListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("list bids for %s: %w", listingID, err)
	}
	return bids, nil
}

// ListBidsForUser returns the user's own bids, most recent first, with
// listing names attached.
func (e *BiddingEngine) ListBidsForUser(ctx context.Context, bidderID string) ([]*domain.UserBid, error) {
	bids, err := e.bids.BidsForUser(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("list bids for user %s: %w", bidderID, err)
	}
	return bids, nil
}

// cacheStatus and publishEvent are best-effort: the repositories are the
// source of truth, so cache and event failures are logged, not surfaced.
func (e *BiddingEngine) cacheStatus(ctx context.Context, listingID string, status domain.AuctionStatus) {
	if e.stateCache == nil {
		return
	}
	if err := e.stateCache.SetAuctionStatus(ctx, listingID, status); err != nil {
		e.log.Warn("Failed to update auction status cache", "listing_id", listingID, "error", err)
	}
}

func (e *BiddingEngine) publishEvent(ctx context.Context, eventType domain.BidEventType, listingID, userID string, amount float64) {
	if e.events == nil {
		return
	}
	event := &domain.BidEvent{
		Type:      eventType,
		ListingID: listingID,
		UserID:    userID,
		Amount:    amount,
		Timestamp: e.now(),
	}
	if err := e.events.PublishBidEvent(ctx, event); err != nil {
		e.log.Warn("Failed to publish bid event", "listing_id", listingID, "type", eventType, "error", err)
	}
}
