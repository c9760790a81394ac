package model

import (
	"time"

	"github.com/numdraw/bet-platform/internal/market-service/lifecycle"
)

// Effective stake bounds applied when a game type does not set its own.
const (
	DefaultMinStake int64 = 10
	DefaultMaxStake int64 = 10000
)

// GameType is a rule set plus payout multiplier ("Jodi", "Odd-Even"), usable
// across markets. Created by an admin action, never deleted.
type GameType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Rules       []string  `json:"rules"`
	Odds        float64   `json:"odds"` // decimal payout multiplier
	MinStake    *int64    `json:"min_stake,omitempty"`
	MaxStake    *int64    `json:"max_stake,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Bounds returns the effective stake limits, falling back to the defaults
// when the game type leaves them unset.
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

// Market is a time-boxed number-draw event offering one or more game types.
type Market struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Status      lifecycle.Status `json:"status"`
	Countdown   string           `json:"countdown,omitempty"` // human readable, display only
	NextDraw    string           `json:"next_draw,omitempty"`
	Description string           `json:"description,omitempty"`
	ImageURL    string           `json:"image_url,omitempty"`
	OpensAt     *time.Time       `json:"opens_at,omitempty"`  // scheduler: upcoming -> open
	ClosesAt    *time.Time       `json:"closes_at,omitempty"` // scheduler: open -> closed
	Games       []MarketGame     `json:"games"`
	Results     []MarketResult   `json:"results"` // most recent first
	CreatedAt   time.Time        `json:"created_at"`
}

// MarketGame binds one game type to one market. Its status never diverges
// from the parent market: every market transition overwrites it.
type MarketGame struct {
	ID         string           `json:"id"`
	MarketID   string           `json:"market_id"`
	GameTypeID string           `json:"game_type_id"`
	GameType   GameType         `json:"game_type"`
	Status     lifecycle.Status `json:"status"`
}

// MarketResult is one declared draw outcome: a free-text result string per
// game type ("45", "Odd").
type MarketResult struct {
	ID          string            `json:"id"`
	MarketID    string            `json:"market_id"`
	DisplayDate string            `json:"date"`
	Results     map[string]string `json:"results"` // game-type id -> result string
	DeclaredAt  time.Time         `json:"declared_at"`
}

// TossGame is a two-team outcome-prediction event. It follows the market
// status vocabulary and transition rules but carries a single winner field.
type TossGame struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	TeamA     string           `json:"team_a"`
	TeamB     string           `json:"team_b"`
	Status    lifecycle.Status `json:"status"`
	StartTime string           `json:"start_time,omitempty"`
	ImageURL  string           `json:"image_url,omitempty"`
	Winner    string           `json:"winner,omitempty"` // set by result declaration
	CreatedAt time.Time        `json:"created_at"`
}
