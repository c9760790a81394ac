package dto

type CommitRequest struct {
	UserID      string `json:"userId"`
	ExternalRef string `json:"external_ref"`
}

type PayoutRequest struct {
	UserID      string `json:"userId"`
	Amount      int64  `json:"amount"`
	ExternalRef string `json:"external_ref"`
}
