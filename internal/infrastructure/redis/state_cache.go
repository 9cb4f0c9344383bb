package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"marketplace-system/internal/domain"
)

// StateCache keeps a hot-path projection of each listing's auction status.
// The database row stays authoritative; a cache miss is not an error.
type StateCache struct {
	client *redis.Client
}

func NewStateCache(client *redis.Client) *StateCache {
	return &StateCache{client: client}
}

func (r *StateCache) SetAuctionStatus(ctx context.Context, listingID string, status domain.AuctionStatus) error {
	key := fmt.Sprintf("listing:%s:bid_status", listingID)
	return r.client.Set(ctx, key, string(status), 0).Err()
}

func (r *StateCache) GetAuctionStatus(ctx context.Context, listingID string) (domain.AuctionStatus, bool, error) {
	key := fmt.Sprintf("listing:%s:bid_status", listingID)

	result, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.StatusNotStarted, false, nil
		}
		return domain.StatusNotStarted, false, err
	}

	return domain.AuctionStatus(result), true, nil
}
