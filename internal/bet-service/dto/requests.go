package dto

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// PlaceBetRequest is a wager against one game type within one market or toss
// game. Numbers carry the draw selection; a non-empty Team marks a toss bet
// (and the numbers must then be empty).
type PlaceBetRequest struct {
	UserID     string `json:"userId" validate:"required"`
	MarketID   string `json:"marketId" validate:"required"`
	GameTypeID string `json:"gameTypeId" validate:"required"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	Numbers    []int  `json:"numbers" validate:"dive,gte=0"`
	Team       string `json:"team"`
}

func (r *PlaceBetRequest) Validate() error { return validate.Struct(r) }
