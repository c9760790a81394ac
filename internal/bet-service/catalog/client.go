package catalog

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/numdraw/bet-platform/internal/market-service/lifecycle"
)

var ErrNotFound = errors.New("not found")

// GameType is the slice of the catalog mirror bet-service needs for
// admission checks: payout odds and stake bounds.
type GameType struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Odds     float64 `json:"odds"`
	MinStake *int64  `json:"min_stake,omitempty"`
	MaxStake *int64  `json:"max_stake,omitempty"`
}

// Effective bounds when the game type leaves its own unset.
const (
	DefaultMinStake int64 = 10
	DefaultMaxStake int64 = 10000
)

func (g GameType) Bounds() (min, max int64) {
	min, max = DefaultMinStake, DefaultMaxStake
	if g.MinStake != nil {
		min = *g.MinStake
	}
	if g.MaxStake != nil {
		max = *g.MaxStake
	}
	return min, max
}

// Client reads the market-service mirror out of Redis. Keys are written by
// market-service on every create/transition.
type Client struct{ R *redis.Client }

func NewClient(r *redis.Client) *Client { return &Client{R: r} }

func (c *Client) MarketStatus(ctx context.Context, marketID string) (lifecycle.Status, error) {
	val, err := c.R.Get(ctx, "market:status:"+marketID).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return lifecycle.Status(val), nil
}

func (c *Client) TossStatus(ctx context.Context, tossID string) (lifecycle.Status, error) {
	val, err := c.R.Get(ctx, "toss:status:"+tossID).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return lifecycle.Status(val), nil
}

func (c *Client) GameType(ctx context.Context, gameTypeID string) (*GameType, error) {
	b, err := c.R.Get(ctx, "gametype:"+gameTypeID).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var gt GameType
	if err := json.Unmarshal(b, &gt); err != nil {
		return nil, err
	}
	return &gt, nil
}
