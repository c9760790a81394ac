package events

import "time"

// Event published by market-service when an admin declares the results of a
// draw. Results maps game-type id to the declared result string ("45", "Odd").
type ResultDeclared struct {
	MarketID    string            `json:"market_id"`
	ResultID    string            `json:"result_id"`
	Results     map[string]string `json:"results"`
	DisplayDate string            `json:"display_date"`
	DeclaredAt  time.Time         `json:"declared_at"`
}

// TossResultDeclared carries a single winning team instead of a result map.
type TossResultDeclared struct {
	TossID     string    `json:"toss_id"`
	Winner     string    `json:"winner"`
	DeclaredAt time.Time `json:"declared_at"`
}
