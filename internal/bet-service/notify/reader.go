package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Reader exposes the per-user notification feed written by the
// settlement-worker (newest first, capped there).
type Reader struct{ R *redis.Client }

func NewReader(r *redis.Client) *Reader { return &Reader{R: r} }

func key(userID string) string { return "notifications:" + userID }

func (n *Reader) List(ctx context.Context, userID string) ([]json.RawMessage, error) {
	vals, err := n.R.LRange(ctx, key(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		out = append(out, json.RawMessage(v))
	}
	return out, nil
}
