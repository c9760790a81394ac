package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/numdraw/bet-platform/internal/market-service/lifecycle"
	"github.com/numdraw/bet-platform/internal/market-service/model"
)

// Store mirrors market/toss status and game-type definitions into Redis so
// bet-service can run its admission checks without calling back here.
type Store struct{ R *redis.Client }

func New(r *redis.Client) *Store { return &Store{R: r} }

func marketKey(id string) string   { return "market:status:" + id }
func tossKey(id string) string     { return "toss:status:" + id }
func gameTypeKey(id string) string { return "gametype:" + id }

// No TTL: these keys are an authoritative mirror, not a cache of a slow read.
func (s *Store) SetMarketStatus(ctx context.Context, marketID string, st lifecycle.Status) error {
	return s.R.Set(ctx, marketKey(marketID), string(st), 0).Err()
}

func (s *Store) SetTossStatus(ctx context.Context, tossID string, st lifecycle.Status) error {
	return s.R.Set(ctx, tossKey(tossID), string(st), 0).Err()
}

func (s *Store) SetGameType(ctx context.Context, gt model.GameType) error {
	b, err := json.Marshal(gt)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, gameTypeKey(gt.ID), b, 0).Err()
}
