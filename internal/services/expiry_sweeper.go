package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"marketplace-system/internal/domain"
	"marketplace-system/pkg/logger"
)

// ExpirySweeper periodically resolves auctions whose deadline has passed.
// The engine already resolves lazily on every touch, so the sweep only picks
// up listings nobody is reading; it is optional and independently
// cancellable. With leader election configured, only the leading instance
// sweeps.
type ExpirySweeper struct {
	engine   *BiddingEngine
	listings domain.ListingRepository
	leader   domain.LeaderElection // optional
	cron     *cron.Cron
	interval time.Duration
	instance string
	now      domain.Clock
	log      logger.Logger
}

func NewExpirySweeper(
	engine *BiddingEngine,
	listings domain.ListingRepository,
	leader domain.LeaderElection,
	interval time.Duration,
	instanceID string,
	clock domain.Clock,
	log logger.Logger,
) *ExpirySweeper {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &ExpirySweeper{
		engine:   engine,
		listings: listings,
		leader:   leader,
		cron:     cron.New(cron.WithSeconds()),
		interval: interval,
		instance: instanceID,
		now:      clock,
		log:      log,
	}
}

func (s *ExpirySweeper) Start(ctx context.Context) error {
	s.log.Info("Starting expiry sweeper", "interval", s.interval)

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *ExpirySweeper) Stop() error {
	s.log.Info("Stopping expiry sweeper")
	s.cron.Stop()
	return nil
}

// Sweep resolves every due listing once. Exported so it can be driven
// directly in tests and from the lazy read path if wanted.
func (s *ExpirySweeper) Sweep(ctx context.Context) {
	if s.leader != nil {
		isLeader, err := s.leader.IsLeader(ctx, s.instance)
		if err != nil {
			s.log.Error("Failed to check sweep leadership", "error", err)
			return
		}
		if !isLeader {
			return
		}
	}

	due, err := s.listings.ExpiredActive(ctx, s.now())
	if err != nil {
		s.log.Error("Failed to list expired auctions", "error", err)
		return
	}

	for _, listingID := range due {
		if _, err := s.engine.ResolveExpiry(ctx, listingID); err != nil {
			s.log.Error("Failed to resolve expired auction", "listing_id", listingID, "error", err)
		}
	}

	if len(due) > 0 {
		s.log.Info("Expiry sweep completed", "resolved", len(due))
	}
}
