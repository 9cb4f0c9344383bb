package redis

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"marketplace-system/internal/domain"
)

const bidEventsChannel = "bid_events"

type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

func (r *EventPublisher) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, bidEventsChannel, data).Err()
}
