package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/numdraw/bet-platform/internal/market-service/lifecycle"
	"github.com/numdraw/bet-platform/internal/market-service/model"
)

// Memory keeps the catalog in process memory behind a RWMutex. It mirrors the
// Postgres semantics and backs the service tests and local runs without a
// database.
type Memory struct {
	mu        sync.RWMutex
	gameTypes map[string]model.GameType
	markets   map[string]*model.Market
	toss      map[string]*model.TossGame

	gameTypeOrder []string
	marketOrder   []string
}

func NewMemory() *Memory {
	return &Memory{
		gameTypes: make(map[string]model.GameType),
		markets:   make(map[string]*model.Market),
		toss:      make(map[string]*model.TossGame),
	}
}

func (m *Memory) CreateGameType(_ context.Context, g *model.GameType) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g.ID = uuid.NewString()
	g.CreatedAt = time.Now()
	m.gameTypes[g.ID] = *g
	m.gameTypeOrder = append(m.gameTypeOrder, g.ID)
	return g.ID, nil
}

func (m *Memory) GetGameType(_ context.Context, id string) (*model.GameType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.gameTypes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (m *Memory) ListGameTypes(_ context.Context) ([]model.GameType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.GameType, 0, len(m.gameTypeOrder))
	for _, id := range m.gameTypeOrder {
		out = append(out, m.gameTypes[id])
	}
	return out, nil
}

func (m *Memory) CreateMarket(_ context.Context, mk *model.Market, gameTypeIDs []string) (*model.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.markets {
		if other.Slug == mk.Slug {
			return nil, ErrSlugTaken
		}
	}

	mk.ID = uuid.NewString()
	mk.Games = nil
	mk.Results = nil
	mk.CreatedAt = time.Now()

	for _, gtID := range gameTypeIDs {
		gt, ok := m.gameTypes[gtID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownGames, gtID)
		}
		mk.Games = append(mk.Games, model.MarketGame{
			ID:         uuid.NewString(),
			MarketID:   mk.ID,
			GameTypeID: gt.ID,
			GameType:   gt,
			Status:     mk.Status,
		})
	}

	cp := *mk
	m.markets[mk.ID] = &cp
	m.marketOrder = append(m.marketOrder, mk.ID)
	return mk, nil
}

func (m *Memory) GetMarket(_ context.Context, id string) (*model.Market, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mk, ok := m.markets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *mk
	return &cp, nil
}

func (m *Memory) GetMarketBySlug(_ context.Context, slug string) (*model.Market, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, mk := range m.markets {
		if mk.Slug == slug {
			cp := *mk
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListMarkets(_ context.Context) ([]model.Market, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Market, 0, len(m.marketOrder))
	for _, id := range m.marketOrder {
		out = append(out, *m.markets[id])
	}
	return out, nil
}

func (m *Memory) UpdateMarketStatus(_ context.Context, marketID string, status lifecycle.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mk, ok := m.markets[marketID]
	if !ok {
		return ErrNotFound
	}
	mk.Status = status
	for i := range mk.Games {
		mk.Games[i].Status = status
	}
	return nil
}

func (m *Memory) DeclareResult(_ context.Context, marketID string, results map[string]string, displayDate string) (*model.MarketResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mk, ok := m.markets[marketID]
	if !ok {
		return nil, ErrNotFound
	}

	closed, err := lifecycle.ForceClose(mk.Status)
	if err != nil {
		return nil, err
	}
	mk.Status = closed
	for i := range mk.Games {
		mk.Games[i].Status = closed
	}

	mr := model.MarketResult{
		ID:          uuid.NewString(),
		MarketID:    marketID,
		DisplayDate: displayDate,
		Results:     results,
		DeclaredAt:  time.Now(),
	}
	mk.Results = append([]model.MarketResult{mr}, mk.Results...)
	return &mr, nil
}

func (m *Memory) CreateTossGame(_ context.Context, t *model.TossGame) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	cp := *t
	m.toss[t.ID] = &cp
	return t.ID, nil
}

func (m *Memory) GetTossGame(_ context.Context, id string) (*model.TossGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.toss[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Memory) ListTossGames(_ context.Context) ([]model.TossGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.TossGame, 0, len(m.toss))
	for _, t := range m.toss {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateTossStatus(_ context.Context, id string, status lifecycle.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.toss[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	return nil
}

func (m *Memory) DeclareTossResult(_ context.Context, id string, winner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.toss[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = lifecycle.StatusClosed
	t.Winner = winner
	return nil
}

func (m *Memory) DueToOpen(_ context.Context, now time.Time) ([]string, error) {
	return m.due(lifecycle.StatusUpcoming, now, func(mk *model.Market) *time.Time { return mk.OpensAt })
}

func (m *Memory) DueToClose(_ context.Context, now time.Time) ([]string, error) {
	return m.due(lifecycle.StatusOpen, now, func(mk *model.Market) *time.Time { return mk.ClosesAt })
}

func (m *Memory) due(status lifecycle.Status, now time.Time, at func(*model.Market) *time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for _, id := range m.marketOrder {
		mk := m.markets[id]
		t := at(mk)
		if mk.Status == status && t != nil && !t.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
