package services

import (
	"context"
	"fmt"

	"marketplace-system/internal/domain"
	"marketplace-system/pkg/logger"
)

// EventRelay consumes bid events from the broker and fans them out to the
// websocket connections watching each listing. It runs in the stream
// service, decoupled from the engine that produced the events.
type EventRelay struct {
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewEventRelay(connManager domain.ConnectionManager, log logger.Logger) *EventRelay {
	return &EventRelay{
		connManager: connManager,
		log:         log,
	}
}

func (r *EventRelay) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	r.log.Info("Starting event relay")
	return subscriber.SubscribeToBidEvents(ctx, r.handleBidEvent)
}

func (r *EventRelay) handleBidEvent(event *domain.BidEvent) error {
	r.log.Debug("Handling bid event", "type", event.Type, "listing_id", event.ListingID)

	switch event.Type {
	case domain.BidAccepted:
		return r.connManager.BroadcastToListing(event.ListingID, map[string]interface{}{
			"type":        "bid_update",
			"current_bid": event.Amount,
			"bidder_id":   event.UserID,
			"timestamp":   event.Timestamp,
		})

	case domain.BidRejected:
		// Rejections are private to the submitting request; nothing to fan out.
		return nil

	case domain.AuctionEnded:
		if err := r.connManager.BroadcastToListing(event.ListingID, map[string]interface{}{
			"type":      "auction_ended",
			"timestamp": event.Timestamp,
		}); err != nil {
			r.log.Error("Failed to broadcast auction ended", "listing_id", event.ListingID, "error", err)
			return err
		}
		return r.connManager.CloseAndUnregisterConnections(event.ListingID)
	}

	return fmt.Errorf("unknown event type %q", event.Type)
}
