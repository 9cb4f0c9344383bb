package memory

import (
	"context"
	"fmt"
	"time"

	"marketplace-system/internal/domain"
)

// ListingRepository implements domain.ListingRepository on a Store. All
// mutating operations hold the store lock across read-validate-write, so
// CommitBid never observes a stale current bid and never returns
// ErrConflict: losing races fail definitively with ErrBidTooLow or
// ErrNotActive.
type ListingRepository struct {
	store *Store
}

func NewListingRepository(store *Store) *ListingRepository {
	return &ListingRepository{store: store}
}

func (r *ListingRepository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.listings[listing.ID]; exists {
		return fmt.Errorf("create listing %s: %w", listing.ID, domain.ErrConflict)
	}
	if listing.BidStatus == "" {
		listing.BidStatus = domain.StatusNotStarted
	}
	r.store.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (r *ListingRepository) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	listing, ok := r.store.listings[listingID]
	if !ok {
		return nil, fmt.Errorf("get listing %s: %w", listingID, domain.ErrListingNotFound)
	}
	return cloneListing(listing), nil
}

func (r *ListingRepository) EnableAuction(ctx context.Context, listingID string, startingBid float64, bidEndTime, now time.Time) (*domain.Listing, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	listing, ok := r.store.listings[listingID]
	if !ok {
		return nil, fmt.Errorf("enable auction on %s: %w", listingID, domain.ErrListingNotFound)
	}

	listing.ResetAuction(startingBid, bidEndTime, now)

	// Prior-round bids are cancelled in the same atomic step so no stale
	// "active" bids survive into the new round.
	for _, b := range r.store.bids[listingID] {
		if b.Status == domain.BidActive {
			b.Status = domain.BidCancelled
		}
	}

	return cloneListing(listing), nil
}

func (r *ListingRepository) CommitBid(ctx context.Context, bid *domain.Bid, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	listing, ok := r.store.listings[bid.ListingID]
	if !ok {
		return fmt.Errorf("commit bid on %s: %w", bid.ListingID, domain.ErrListingNotFound)
	}
	if !listing.IsOpenForBids(now) {
		return fmt.Errorf("commit bid on %s: %w", bid.ListingID, domain.ErrNotActive)
	}
	if !listing.BeatsCurrentPrice(bid.Amount) {
		return fmt.Errorf("commit bid on %s: %w (minimum %.2f)", bid.ListingID, domain.ErrBidTooLow, listing.MinimumNextBid())
	}

	cp := *bid
	cp.Status = domain.BidActive
	r.store.bids[bid.ListingID] = append(r.store.bids[bid.ListingID], &cp)

	amount := bid.Amount
	listing.CurrentBid = &amount
	listing.UpdatedAt = now
	return nil
}

func (r *ListingRepository) CloseAuction(ctx context.Context, listingID string, now time.Time) (*domain.Listing, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	listing, ok := r.store.listings[listingID]
	if !ok {
		return nil, false, fmt.Errorf("close auction on %s: %w", listingID, domain.ErrListingNotFound)
	}

	if !listing.IsExpired(now) {
		// Already ended, or not due yet. Idempotent no-op.
		return cloneListing(listing), false, nil
	}

	listing.BidStatus = domain.StatusEnded
	listing.UpdatedAt = now

	if winner := winningBid(r.store.bids[listingID]); winner != nil {
		winner.Status = domain.BidWon
		id := winner.ID
		listing.WinningBidID = &id
		for _, b := range r.store.bids[listingID] {
			if b.Status == domain.BidActive {
				b.Status = domain.BidLost
			}
		}
	}

	return cloneListing(listing), true, nil
}

func (r *ListingRepository) ExpiredActive(ctx context.Context, now time.Time) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var due []string
	for id, listing := range r.store.listings {
		if listing.IsExpired(now) {
			due = append(due, id)
		}
	}
	return due, nil
}
