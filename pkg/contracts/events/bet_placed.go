package events

type BetPlaced struct {
	BetID       string `json:"bet_id"`
	UserID      string `json:"user_id"`
	MarketID    string `json:"market_id"`
	GameTypeID  string `json:"game_type_id"`
	Amount      int64  `json:"amount"`
	Numbers     []int  `json:"numbers,omitempty"`
	Team        string `json:"team,omitempty"` // toss bets only
	ReservedRef string `json:"reserved_ref"`   // external_ref used on the wallet reserve (betID)
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
