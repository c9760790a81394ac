package dto

type WalletResponse struct {
	UserID   string `json:"userId"`
	WalletID string `json:"walletId"`
	Balance  int64  `json:"balance"`
}

type ReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type LedgerEntry struct {
	Operation   string `json:"operation"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}
