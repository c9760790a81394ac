package dto

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type CreateGameTypeRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Rules       []string `json:"rules"`
	Odds        float64  `json:"odds" validate:"required,gt=0"` // decimal payout multiplier
	MinStake    *int64   `json:"min_stake" validate:"omitempty,gt=0"`
	MaxStake    *int64   `json:"max_stake" validate:"omitempty,gt=0"`
}

func (r *CreateGameTypeRequest) Validate() error { return validate.Struct(r) }

type CreateMarketRequest struct {
	Name        string     `json:"name" validate:"required"`
	Slug        string     `json:"slug" validate:"required"`
	Status      string     `json:"status" validate:"required,oneof=upcoming open closed"`
	Countdown   string     `json:"countdown"`
	NextDraw    string     `json:"next_draw"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url"`
	OpensAt     *time.Time `json:"opens_at"`
	ClosesAt    *time.Time `json:"closes_at"`
	GameTypeIDs []string   `json:"game_type_ids" validate:"min=1,dive,required"`
}

func (r *CreateMarketRequest) Validate() error { return validate.Struct(r) }

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=upcoming open closed"`
}

func (r *UpdateStatusRequest) Validate() error { return validate.Struct(r) }

type DeclareResultRequest struct {
	// game-type id -> free-text result string, ex: {"gt1": "45"}
	Results map[string]string `json:"results" validate:"required,min=1"`
	Date    string            `json:"date"` // display date; defaults to today
}

func (r *DeclareResultRequest) Validate() error { return validate.Struct(r) }

type CreateTossGameRequest struct {
	Title     string `json:"title" validate:"required"`
	TeamA     string `json:"team_a" validate:"required"`
	TeamB     string `json:"team_b" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=upcoming open closed"`
	StartTime string `json:"start_time"`
	ImageURL  string `json:"image_url"`
}

func (r *CreateTossGameRequest) Validate() error { return validate.Struct(r) }

type DeclareTossResultRequest struct {
	Winner string `json:"winner" validate:"required"`
}

func (r *DeclareTossResultRequest) Validate() error { return validate.Struct(r) }
