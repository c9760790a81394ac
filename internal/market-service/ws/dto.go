package ws

// ClientMsg is a message received from a WebSocket client.
// Type: subscribe | unsubscribe | ping
// MarketID: required for subscribe/unsubscribe
type ClientMsg struct {
	Type     string `json:"type"`
	MarketID string `json:"marketId"`
}

// MarketUpdate is pushed to WebSocket clients subscribed to a market: status
// transitions and declared results.
type MarketUpdate struct {
	MarketID string      `json:"marketId"`
	Payload  interface{} `json:"payload"`
}
