package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketplace-system/internal/domain"
	"marketplace-system/internal/infrastructure/memory"
	"marketplace-system/pkg/logger"
)

type fakeLeader struct {
	leading bool
}

func (f *fakeLeader) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	return f.leading, nil
}

func (f *fakeLeader) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	return f.leading, nil
}

func (f *fakeLeader) ReleaseLeadership(ctx context.Context, instanceID string) error {
	return nil
}

func newSweeperFixture(t *testing.T, leader domain.LeaderElection) (*ExpirySweeper, *engineFixture) {
	t.Helper()
	f := newEngineFixture(t)
	sweeper := NewExpirySweeper(
		f.engine,
		memory.NewListingRepository(f.store),
		leader,
		time.Second,
		"instance-1",
		f.clock.Now,
		logger.NewNop(),
	)
	return sweeper, f
}

func TestSweepResolvesDueListings(t *testing.T) {
	sweeper, f := newSweeperFixture(t, nil)

	f.createListing(t, "due", "alice")
	f.createListing(t, "later", "alice")
	f.createListing(t, "plain", "alice")
	f.enable(t, "due", "alice", 50, time.Hour)
	f.enable(t, "later", "alice", 50, 3*time.Hour)

	_, err := f.engine.PlaceBid(context.Background(), "due", "bob", 60)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	sweeper.Sweep(context.Background())

	resolved, err := f.engine.ResolveExpiry(context.Background(), "due")
	require.NoError(t, err)
	require.Equal(t, domain.StatusEnded, resolved.BidStatus)
	require.NotNil(t, resolved.WinningBidID)

	open, err := f.engine.ResolveExpiry(context.Background(), "later")
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, open.BidStatus)

	// Sweeping resolved exactly once; the explicit resolve above was a no-op.
	require.Len(t, f.events.ofType(domain.AuctionEnded), 1)
}

func TestSweepOnlyRunsOnLeader(t *testing.T) {
	leader := &fakeLeader{leading: false}
	sweeper, f := newSweeperFixture(t, leader)

	f.createListing(t, "due", "alice")
	f.enable(t, "due", "alice", 50, time.Hour)
	f.clock.Advance(2 * time.Hour)

	sweeper.Sweep(context.Background())
	require.Empty(t, f.events.ofType(domain.AuctionEnded))

	leader.leading = true
	sweeper.Sweep(context.Background())
	require.Len(t, f.events.ofType(domain.AuctionEnded), 1)
}

func TestSweepIsIdempotent(t *testing.T) {
	sweeper, f := newSweeperFixture(t, nil)

	f.createListing(t, "due", "alice")
	f.enable(t, "due", "alice", 50, time.Hour)
	f.clock.Advance(2 * time.Hour)

	sweeper.Sweep(context.Background())
	sweeper.Sweep(context.Background())
	require.Len(t, f.events.ofType(domain.AuctionEnded), 1)
}
