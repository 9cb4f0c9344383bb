package memory

import (
	"context"

	"marketplace-system/internal/domain"
)

type BidRepository struct {
	store *Store
}

func NewBidRepository(store *Store) *BidRepository {
	return &BidRepository{store: store}
}

func (r *BidRepository) BidsForListing(ctx context.Context, listingID string) ([]*domain.ListingBid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if _, ok := r.store.listings[listingID]; !ok {
		return nil, domain.ErrListingNotFound
	}

	bids := make([]*domain.ListingBid, 0, len(r.store.bids[listingID]))
	for _, b := range r.store.bids[listingID] {
		bids = append(bids, &domain.ListingBid{
			Bid:        *b,
			BidderName: r.store.userName(b.BidderID),
		})
	}

	sortForListing(bids)
	return bids, nil
}

func (r *BidRepository) BidsForUser(ctx context.Context, userID string) ([]*domain.UserBid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var bids []*domain.UserBid
	for listingID, listingBids := range r.store.bids {
		listing := r.store.listings[listingID]
		for _, b := range listingBids {
			if b.BidderID != userID {
				continue
			}
			ub := &domain.UserBid{Bid: *b}
			if listing != nil {
				ub.ListingName = listing.Name
			}
			bids = append(bids, ub)
		}
	}

	sortForUser(bids)
	return bids, nil
}
