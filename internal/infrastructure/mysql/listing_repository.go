package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"marketplace-system/internal/domain"
)

// MySQLListingRepository implements domain.ListingRepository. Bid commits use
// a conditional UPDATE on the listing's current bid so two concurrent bids can
// never both win the same price point; the losing side gets ErrConflict and
// the caller re-reads and retries.
type MySQLListingRepository struct {
	db *sql.DB
}

func NewMySQLListingRepository(db *sql.DB) *MySQLListingRepository {
	return &MySQLListingRepository{db: db}
}

const listingColumns = `
    id, owner_id, name, price, stock, publish, created_at, updated_at,
    is_biddable, starting_bid, current_bid, bid_end_time, bid_status, winning_bid_id
`

func (r *MySQLListingRepository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	if listing.BidStatus == "" {
		listing.BidStatus = domain.StatusNotStarted
	}

	query := `
        INSERT INTO listings (` + listingColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		listing.ID, listing.OwnerID, listing.Name, listing.Price,
		listing.Stock, listing.Publish, listing.CreatedAt, listing.UpdatedAt,
		listing.IsBiddable, listing.StartingBid, listing.CurrentBid,
		listing.BidEndTime, string(listing.BidStatus), listing.WinningBidID)
	return err
}

func (r *MySQLListingRepository) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`

	listing, err := scanListing(r.db.QueryRowContext(ctx, query, listingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("get listing %s: %w", listingID, domain.ErrListingNotFound)
		}
		return nil, err
	}
	return listing, nil
}

func (r *MySQLListingRepository) EnableAuction(ctx context.Context, listingID string, startingBid float64, bidEndTime, now time.Time) (*domain.Listing, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
        UPDATE listings
        SET is_biddable = TRUE, starting_bid = ?, current_bid = NULL,
            bid_end_time = ?, bid_status = ?, winning_bid_id = NULL, updated_at = ?
        WHERE id = ?
    `
	result, err := tx.ExecContext(ctx, query,
		startingBid, bidEndTime, string(domain.StatusActive), now, listingID)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("enable auction on %s: %w", listingID, domain.ErrListingNotFound)
	}

	// Prior-round bids are cancelled in the same transaction so no stale
	// "active" bids survive into the new round.
	_, err = tx.ExecContext(ctx,
		`UPDATE bids SET status = ? WHERE listing_id = ? AND status = ?`,
		string(domain.BidCancelled), listingID, string(domain.BidActive))
	if err != nil {
		return nil, err
	}

	listing, err := scanListing(tx.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, listingID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *MySQLListingRepository) CommitBid(ctx context.Context, bid *domain.Bid, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The WHERE clause re-checks every acceptance condition, so a commit that
	// raced with another bid or with expiry simply matches zero rows.
	query := `
        UPDATE listings
        SET current_bid = ?, updated_at = ?
        WHERE id = ? AND is_biddable = TRUE AND bid_status = ?
          AND bid_end_time > ?
          AND ((current_bid IS NULL AND starting_bid <= ?) OR current_bid < ?)
    `
	result, err := tx.ExecContext(ctx, query,
		bid.Amount, now, bid.ListingID, string(domain.StatusActive),
		now, bid.Amount, bid.Amount)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.classifyRejection(ctx, bid, now)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO bids (id, listing_id, bidder_id, amount, status, bid_time)
        VALUES (?, ?, ?, ?, ?, ?)
    `, bid.ID, bid.ListingID, bid.BidderID, bid.Amount, string(domain.BidActive), bid.BidTime)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// classifyRejection turns a zero-row conditional UPDATE into a definitive
// domain error where the listing state warrants one, and ErrConflict where
// the state says the bid should have gone through (a concurrent commit landed
// between our read and our write).
func (r *MySQLListingRepository) classifyRejection(ctx context.Context, bid *domain.Bid, now time.Time) error {
	listing, err := r.GetListing(ctx, bid.ListingID)
	if err != nil {
		return err
	}

	if !listing.IsOpenForBids(now) {
		return fmt.Errorf("commit bid on %s: %w", bid.ListingID, domain.ErrNotActive)
	}
	if !listing.BeatsCurrentPrice(bid.Amount) {
		return fmt.Errorf("commit bid on %s: %w (minimum %.2f)",
			bid.ListingID, domain.ErrBidTooLow, listing.MinimumNextBid())
	}
	return fmt.Errorf("commit bid on %s: %w", bid.ListingID, domain.ErrConflict)
}

func (r *MySQLListingRepository) CloseAuction(ctx context.Context, listingID string, now time.Time) (*domain.Listing, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
        UPDATE listings SET bid_status = ?, updated_at = ?
        WHERE id = ? AND bid_status = ? AND bid_end_time <= ?
    `, string(domain.StatusEnded), now, listingID, string(domain.StatusActive), now)
	if err != nil {
		return nil, false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if affected == 0 {
		// Already ended, or not due yet. Idempotent no-op.
		listing, err := r.GetListing(ctx, listingID)
		if err != nil {
			return nil, false, err
		}
		return listing, false, nil
	}

	// Highest amount wins, earliest bid breaks ties.
	var winnerID string
	err = tx.QueryRowContext(ctx, `
        SELECT id FROM bids
        WHERE listing_id = ? AND status = ?
        ORDER BY amount DESC, bid_time ASC
        LIMIT 1
    `, listingID, string(domain.BidActive)).Scan(&winnerID)
	if err != nil && err != sql.ErrNoRows {
		return nil, false, err
	}

	if winnerID != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE bids SET status = ? WHERE listing_id = ? AND status = ?`,
			string(domain.BidLost), listingID, string(domain.BidActive))
		if err != nil {
			return nil, false, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE bids SET status = ? WHERE id = ?`,
			string(domain.BidWon), winnerID)
		if err != nil {
			return nil, false, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE listings SET winning_bid_id = ? WHERE id = ?`,
			winnerID, listingID)
		if err != nil {
			return nil, false, err
		}
	}

	listing, err := scanListing(tx.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, listingID))
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return listing, true, nil
}

func (r *MySQLListingRepository) ExpiredActive(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id FROM listings WHERE bid_status = ? AND bid_end_time <= ?
    `, string(domain.StatusActive), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		due = append(due, id)
	}
	return due, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	var listing domain.Listing
	var bidStatus string
	var startingBid, currentBid sql.NullFloat64
	var bidEndTime sql.NullTime
	var winningBidID sql.NullString

	err := row.Scan(
		&listing.ID, &listing.OwnerID, &listing.Name, &listing.Price,
		&listing.Stock, &listing.Publish, &listing.CreatedAt, &listing.UpdatedAt,
		&listing.IsBiddable, &startingBid, &currentBid, &bidEndTime,
		&bidStatus, &winningBidID)
	if err != nil {
		return nil, err
	}

	listing.BidStatus = domain.AuctionStatus(bidStatus)
	if startingBid.Valid {
		listing.StartingBid = &startingBid.Float64
	}
	if currentBid.Valid {
		listing.CurrentBid = &currentBid.Float64
	}
	if bidEndTime.Valid {
		listing.BidEndTime = &bidEndTime.Time
	}
	if winningBidID.Valid {
		listing.WinningBidID = &winningBidID.String
	}
	return &listing, nil
}
