package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"marketplace-system/internal/domain"
)

type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

func (r *MySQLBidRepository) BidsForListing(ctx context.Context, listingID string) ([]*domain.ListingBid, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM listings WHERE id = ?)`, listingID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bids for listing %s: %w", listingID, domain.ErrListingNotFound)
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT b.id, b.listing_id, b.bidder_id, b.amount, b.status, b.bid_time, u.name
        FROM bids b
        JOIN users u ON u.id = b.bidder_id
        WHERE b.listing_id = ?
        ORDER BY b.amount DESC, b.bid_time ASC
    `, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.ListingBid
	for rows.Next() {
		var bid domain.ListingBid
		var status string

		err := rows.Scan(&bid.ID, &bid.ListingID, &bid.BidderID,
			&bid.Amount, &status, &bid.BidTime, &bid.BidderName)
		if err != nil {
			return nil, err
		}

		bid.Status = domain.BidStatus(status)
		bids = append(bids, &bid)
	}

	return bids, rows.Err()
}

func (r *MySQLBidRepository) BidsForUser(ctx context.Context, userID string) ([]*domain.UserBid, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT b.id, b.listing_id, b.bidder_id, b.amount, b.status, b.bid_time, l.name
        FROM bids b
        JOIN listings l ON l.id = b.listing_id
        WHERE b.bidder_id = ?
        ORDER BY b.bid_time DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.UserBid
	for rows.Next() {
		var bid domain.UserBid
		var status string

		err := rows.Scan(&bid.ID, &bid.ListingID, &bid.BidderID,
			&bid.Amount, &status, &bid.BidTime, &bid.ListingName)
		if err != nil {
			return nil, err
		}

		bid.Status = domain.BidStatus(status)
		bids = append(bids, &bid)
	}

	return bids, rows.Err()
}
