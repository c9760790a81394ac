package dto

import "time"

type PlaceBetResponse struct {
	BetID   string `json:"betId"`
	Status  string `json:"status"` // pending
	Message string `json:"message,omitempty"`
}

type BetResponse struct {
	BetID      string     `json:"betId"`
	UserID     string     `json:"userId"`
	MarketID   string     `json:"marketId"`
	GameTypeID string     `json:"gameTypeId"`
	Amount     int64      `json:"amount"`
	Numbers    []int      `json:"numbers,omitempty"`
	Team       string     `json:"team,omitempty"`
	Status     string     `json:"status"`
	Payout     int64      `json:"payout"`
	CreatedAt  time.Time  `json:"created_at"`
	SettledAt  *time.Time `json:"settled_at,omitempty"`
}
