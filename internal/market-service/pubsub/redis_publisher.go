package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const ChannelMarketBroadcast = "market_updates_broadcast"

type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

// Payload shape consumed by the WS hub subscriber.
type WSUpdate struct {
	MarketID string      `json:"marketId"`
	Payload  interface{} `json:"payload"`
}

func (b *RedisBroadcaster) PublishMarketUpdate(ctx context.Context, upd WSUpdate) error {
	payload, err := json.Marshal(upd)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, ChannelMarketBroadcast, payload).Err()
}
