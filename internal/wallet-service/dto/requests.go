package dto

type DepositRequest struct {
	UserID      string `json:"userId"`
	Amount      int64  `json:"amount"`
	ExternalRef string `json:"external_ref,omitempty"` // optional, simple idempotency
}

type ReserveRequest struct {
	UserID      string `json:"userId"`
	Amount      int64  `json:"amount"`
	ExternalRef string `json:"external_ref"` // ex: betId
}

type CommitRequest struct {
	UserID      string `json:"userId"`
	ExternalRef string `json:"external_ref"`
}

type RefundRequest struct {
	UserID      string `json:"userId"`
	ExternalRef string `json:"external_ref"`
}

type PayoutRequest struct {
	UserID      string `json:"userId"`
	Amount      int64  `json:"amount"`
	ExternalRef string `json:"external_ref"` // ex: betId; payouts are idempotent per ref
}
