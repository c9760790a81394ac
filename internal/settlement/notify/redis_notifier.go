package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// keep at most this many notifications per user
const maxPerUser = 100

type Notification struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sentAt"`
}

// RedisNotifier pushes per-user notification entries onto a capped list.
// bet-service reads the same list on GET /v1/users/{id}/notifications.
type RedisNotifier struct {
	R *redis.Client
}

func (n *RedisNotifier) Push(ctx context.Context, userID, title, message string) error {
	payload, err := json.Marshal(Notification{Title: title, Message: message, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	key := "notifications:" + userID
	pipe := n.R.Pipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, maxPerUser-1)
	_, err = pipe.Exec(ctx)
	return err
}
