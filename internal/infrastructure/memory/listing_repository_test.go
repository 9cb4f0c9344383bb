package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketplace-system/internal/domain"
)

func seedActiveListing(t *testing.T, store *Store, id string, startingBid float64, end time.Time) {
	t.Helper()
	repo := NewListingRepository(store)
	require.NoError(t, repo.CreateListing(context.Background(), &domain.Listing{
		ID:      id,
		OwnerID: "alice",
		Name:    "Listing " + id,
	}))
	_, err := repo.EnableAuction(context.Background(), id, startingBid, end, end.Add(-time.Hour))
	require.NoError(t, err)
}

func TestCreateListing(t *testing.T) {
	store := NewStore()
	repo := NewListingRepository(store)

	listing := &domain.Listing{ID: "l1", OwnerID: "alice"}
	require.NoError(t, repo.CreateListing(context.Background(), listing))

	got, err := repo.GetListing(context.Background(), "l1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusNotStarted, got.BidStatus)
	require.False(t, got.IsBiddable)

	err = repo.CreateListing(context.Background(), &domain.Listing{ID: "l1"})
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.GetListing(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestCommitBidEnforcesDeadline(t *testing.T) {
	store := NewStore()
	repo := NewListingRepository(store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedActiveListing(t, store, "l1", 50, now.Add(time.Hour))

	bid := &domain.Bid{ID: "b1", ListingID: "l1", BidderID: "bob", Amount: 60, BidTime: now}
	require.NoError(t, repo.CommitBid(context.Background(), bid, now))

	// Past the deadline the commit fails even though nothing flipped the
	// status flag yet.
	late := &domain.Bid{ID: "b2", ListingID: "l1", BidderID: "carol", Amount: 70, BidTime: now}
	err := repo.CommitBid(context.Background(), late, now.Add(2*time.Hour))
	require.ErrorIs(t, err, domain.ErrNotActive)

	tooLow := &domain.Bid{ID: "b3", ListingID: "l1", BidderID: "carol", Amount: 60, BidTime: now}
	err = repo.CommitBid(context.Background(), tooLow, now)
	require.ErrorIs(t, err, domain.ErrBidTooLow)

	err = repo.CommitBid(context.Background(), &domain.Bid{ID: "b4", ListingID: "missing", Amount: 70}, now)
	require.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestCloseAuctionTransitionsOnce(t *testing.T) {
	store := NewStore()
	repo := NewListingRepository(store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedActiveListing(t, store, "l1", 50, now.Add(time.Hour))

	bid := &domain.Bid{ID: "b1", ListingID: "l1", BidderID: "bob", Amount: 60, BidTime: now}
	require.NoError(t, repo.CommitBid(context.Background(), bid, now))

	// Not due yet.
	listing, transitioned, err := repo.CloseAuction(context.Background(), "l1", now)
	require.NoError(t, err)
	require.False(t, transitioned)
	require.Equal(t, domain.StatusActive, listing.BidStatus)

	listing, transitioned, err = repo.CloseAuction(context.Background(), "l1", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.True(t, transitioned)
	require.Equal(t, domain.StatusEnded, listing.BidStatus)
	require.Equal(t, "b1", *listing.WinningBidID)

	listing, transitioned, err = repo.CloseAuction(context.Background(), "l1", now.Add(3*time.Hour))
	require.NoError(t, err)
	require.False(t, transitioned)
	require.Equal(t, "b1", *listing.WinningBidID)
}

func TestCloseAuctionPicksHighestAmount(t *testing.T) {
	store := NewStore()
	repo := NewListingRepository(store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedActiveListing(t, store, "l1", 40, now.Add(time.Hour))

	store.mu.Lock()
	store.bids["l1"] = []*domain.Bid{
		{ID: "b50", ListingID: "l1", BidderID: "bob", Amount: 50, Status: domain.BidActive, BidTime: now},
		{ID: "b75", ListingID: "l1", BidderID: "carol", Amount: 75, Status: domain.BidActive, BidTime: now.Add(time.Minute)},
		{ID: "b60", ListingID: "l1", BidderID: "dave", Amount: 60, Status: domain.BidActive, BidTime: now.Add(2 * time.Minute)},
	}
	store.mu.Unlock()

	listing, transitioned, err := repo.CloseAuction(context.Background(), "l1", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.True(t, transitioned)
	require.Equal(t, "b75", *listing.WinningBidID)

	store.mu.RLock()
	defer store.mu.RUnlock()
	for _, b := range store.bids["l1"] {
		if b.ID == "b75" {
			require.Equal(t, domain.BidWon, b.Status)
		} else {
			require.Equal(t, domain.BidLost, b.Status)
		}
	}
}

func TestCloseAuctionNoBidsNoWinner(t *testing.T) {
	store := NewStore()
	repo := NewListingRepository(store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedActiveListing(t, store, "l1", 40, now.Add(time.Hour))

	listing, transitioned, err := repo.CloseAuction(context.Background(), "l1", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.True(t, transitioned)
	require.Equal(t, domain.StatusEnded, listing.BidStatus)
	require.Nil(t, listing.WinningBidID)
}

func TestCloseAuctionTieBreaksByEarliestBid(t *testing.T) {
	store := NewStore()
	repo := NewListingRepository(store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedActiveListing(t, store, "l1", 50, now.Add(time.Hour))

	// Equal amounts cannot both arrive through CommitBid within one round,
	// but resolution must still break the tie deterministically.
	store.mu.Lock()
	store.bids["l1"] = []*domain.Bid{
		{ID: "late", ListingID: "l1", BidderID: "carol", Amount: 70, Status: domain.BidActive, BidTime: now.Add(time.Minute)},
		{ID: "early", ListingID: "l1", BidderID: "bob", Amount: 70, Status: domain.BidActive, BidTime: now},
	}
	store.mu.Unlock()

	listing, transitioned, err := repo.CloseAuction(context.Background(), "l1", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.True(t, transitioned)
	require.Equal(t, "early", *listing.WinningBidID)
}

func TestEnableAuctionCancelsOnlyActiveBids(t *testing.T) {
	store := NewStore()
	repo := NewListingRepository(store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedActiveListing(t, store, "l1", 50, now.Add(time.Hour))

	store.mu.Lock()
	store.bids["l1"] = []*domain.Bid{
		{ID: "won", ListingID: "l1", Status: domain.BidWon},
		{ID: "lost", ListingID: "l1", Status: domain.BidLost},
		{ID: "standing", ListingID: "l1", Status: domain.BidActive},
	}
	store.mu.Unlock()

	_, err := repo.EnableAuction(context.Background(), "l1", 80, now.Add(3*time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)

	store.mu.RLock()
	defer store.mu.RUnlock()
	statuses := map[string]domain.BidStatus{}
	for _, b := range store.bids["l1"] {
		statuses[b.ID] = b.Status
	}
	require.Equal(t, domain.BidWon, statuses["won"])
	require.Equal(t, domain.BidLost, statuses["lost"])
	require.Equal(t, domain.BidCancelled, statuses["standing"])
}

func TestExpiredActive(t *testing.T) {
	store := NewStore()
	repo := NewListingRepository(store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedActiveListing(t, store, "due", 50, now)
	seedActiveListing(t, store, "open", 50, now.Add(time.Hour))
	require.NoError(t, repo.CreateListing(context.Background(), &domain.Listing{ID: "plain"}))

	due, err := repo.ExpiredActive(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, []string{"due"}, due)

	_, transitioned, err := repo.CloseAuction(context.Background(), "due", now)
	require.NoError(t, err)
	require.True(t, transitioned)

	due, err = repo.ExpiredActive(context.Background(), now)
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestGetListingReturnsCopies(t *testing.T) {
	store := NewStore()
	repo := NewListingRepository(store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedActiveListing(t, store, "l1", 50, now.Add(time.Hour))

	got, err := repo.GetListing(context.Background(), "l1")
	require.NoError(t, err)

	// Mutating the returned value must not leak into the store.
	*got.StartingBid = 999
	got.BidStatus = domain.StatusEnded

	again, err := repo.GetListing(context.Background(), "l1")
	require.NoError(t, err)
	require.Equal(t, 50.0, *again.StartingBid)
	require.Equal(t, domain.StatusActive, again.BidStatus)
}
