package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Repo exposes the due-market queries of the catalog store.
type Repo interface {
	DueToOpen(ctx context.Context, now time.Time) ([]string, error)
	DueToClose(ctx context.Context, now time.Time) ([]string, error)
}

// MarketClient flips a market's status through market-service. Transitions go
// through the service, not straight at the database, so the status mirror and
// websocket broadcasts stay consistent.
type MarketClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewMarketClient(base string) *MarketClient {
	return &MarketClient{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *MarketClient) SetStatus(ctx context.Context, marketID, status string) error {
	body, _ := json.Marshal(map[string]string{"status": status})
	url := fmt.Sprintf("%s/v1/markets/%s/status", c.BaseURL, marketID)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return fmt.Errorf("market status patch http %d", res.StatusCode)
	}
	return nil
}

// Sweeper opens and closes markets whose scheduled times have passed.
type Sweeper struct {
	Log    *zap.Logger
	Repo   Repo
	Market interface {
		SetStatus(ctx context.Context, marketID, status string) error
	}

	OnSwept func(action string) // metrics (counter++ per open/close)
}

func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	s.sweep(ctx, now, "open")
	s.sweep(ctx, now, "closed")
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time, target string) {
	var (
		ids []string
		err error
	)
	if target == "open" {
		ids, err = s.Repo.DueToOpen(ctx, now)
	} else {
		ids, err = s.Repo.DueToClose(ctx, now)
	}
	if err != nil {
		s.Log.Error("due markets query failed", zap.String("target", target), zap.Error(err))
		return
	}

	for _, id := range ids {
		if err := s.Market.SetStatus(ctx, id, target); err != nil {
			s.Log.Error("status flip failed", zap.String("marketId", id), zap.String("target", target), zap.Error(err))
			continue
		}
		s.Log.Info("market swept", zap.String("marketId", id), zap.String("status", target))
		if s.OnSwept != nil {
			s.OnSwept(target)
		}
	}
}
