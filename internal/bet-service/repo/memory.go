package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process bet store behind a RWMutex, used by the handler
// tests and local runs without a database.
type Memory struct {
	mu    sync.RWMutex
	bets  map[string]*Bet
	order []string
}

func NewMemory() *Memory {
	return &Memory{bets: make(map[string]*Bet)}
}

func (m *Memory) CreatePending(_ context.Context, b *Bet) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *b
	cp.ID = uuid.NewString()
	cp.Status = StatusPending
	cp.CreatedAt = time.Now()
	m.bets[cp.ID] = &cp
	m.order = append(m.order, cp.ID)
	return cp.ID, nil
}

func (m *Memory) Delete(_ context.Context, betID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[betID]
	if !ok || b.Status != StatusPending {
		return nil
	}
	delete(m.bets, betID)
	for i, id := range m.order {
		if id == betID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) GetBet(_ context.Context, betID string) (*Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bets[betID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *Memory) ListByUser(_ context.Context, userID string) ([]Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Bet
	// newest first, matching the Postgres ordering
	for i := len(m.order) - 1; i >= 0; i-- {
		if b := m.bets[m.order[i]]; b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}
