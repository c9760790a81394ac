package events

import "time"

// Event emitted by settlement-worker after a bet is marked won or lost.
type BetSettled struct {
	BetID    string    `json:"betId"`
	UserID   string    `json:"userId"`
	MarketID string    `json:"marketId"`
	Status   string    `json:"status"` // "won" | "lost"
	Payout   int64     `json:"payout"`
	Ts       time.Time `json:"ts"`
}
