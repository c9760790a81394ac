package dto

type ReserveRequest struct {
	UserID      string `json:"userId"`
	Amount      int64  `json:"amount"`
	ExternalRef string `json:"external_ref"` // ex: betId
}
