package repo

import "time"

type BetStatus string

const (
	StatusPending BetStatus = "pending"
	StatusWon     BetStatus = "won"
	StatusLost    BetStatus = "lost"
)

// Bet is the wager persisted in Postgres. Numbers carry the selection for
// draw bets; Team replaces them for toss bets. Payout is filled by the
// settlement-worker.
type Bet struct {
	ID         string
	UserID     string
	MarketID   string // market or toss game id
	GameTypeID string
	Amount     int64
	Numbers    []int
	Team       string
	Status     BetStatus
	Payout     int64
	CreatedAt  time.Time
	SettledAt  *time.Time
}
