package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/numdraw/bet-platform/internal/bet-service/catalog"
	"github.com/numdraw/bet-platform/internal/bet-service/dto"
	"github.com/numdraw/bet-platform/internal/bet-service/repo"
	"github.com/numdraw/bet-platform/internal/bet-service/wallet"
	"github.com/numdraw/bet-platform/internal/market-service/lifecycle"
	"github.com/numdraw/bet-platform/pkg/contracts/events"
)

// BetRepo is satisfied by repo.Postgres and repo.Memory.
type BetRepo interface {
	CreatePending(ctx context.Context, b *repo.Bet) (string, error)
	Delete(ctx context.Context, betID string) error
	GetBet(ctx context.Context, betID string) (*repo.Bet, error)
	ListByUser(ctx context.Context, userID string) ([]repo.Bet, error)
}

// Catalog reads the market-service mirror (statuses, game types).
type Catalog interface {
	MarketStatus(ctx context.Context, marketID string) (lifecycle.Status, error)
	TossStatus(ctx context.Context, tossID string) (lifecycle.Status, error)
	GameType(ctx context.Context, gameTypeID string) (*catalog.GameType, error)
}

// Wallet reserves the stake before the bet is accepted.
type Wallet interface {
	Reserve(ctx context.Context, userID string, amount int64, externalRef string) (string, error)
}

type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
}

// Notifications is the per-user feed written at settlement time.
type Notifications interface {
	List(ctx context.Context, userID string) ([]json.RawMessage, error)
}

type Server struct {
	log     *zap.Logger
	repo    BetRepo
	catalog Catalog
	wcli    Wallet
	publ    Publisher
	notif   Notifications
}

func NewServer(log *zap.Logger, r BetRepo, c Catalog, w Wallet, p Publisher, n Notifications) *Server {
	return &Server{log: log, repo: r, catalog: c, wcli: w, publ: p, notif: n}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/bets", s.placeBet)
	r.Get("/v1/bets/{id}", s.getBet)
	r.Get("/v1/users/{userId}/bets", s.listUserBets)
	r.Get("/v1/users/{userId}/notifications", s.listNotifications)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// placeBet runs the admission checks before recording a wager: market
// present and open, game type known, stake within its effective bounds,
// selection non-empty. The stake is reserved against the wallet with the bet
// id as external ref.
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMsg(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	toss := req.Team != ""
	if toss && len(req.Numbers) > 0 {
		writeMsg(w, http.StatusBadRequest, "toss bets carry a team, not numbers")
		return
	}
	if !toss && len(req.Numbers) == 0 {
		writeMsg(w, http.StatusBadRequest, "select at least one number")
		return
	}

	// 1) market (or toss game) must exist and be open
	var st lifecycle.Status
	var err error
	if toss {
		st, err = s.catalog.TossStatus(r.Context(), req.MarketID)
	} else {
		st, err = s.catalog.MarketStatus(r.Context(), req.MarketID)
	}
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeMsg(w, http.StatusNotFound, "market not found")
			return
		}
		writeMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	if st != lifecycle.StatusOpen {
		writeMsg(w, http.StatusConflict, "market is not open for betting")
		return
	}

	// 2) game type must exist; stake must sit within its effective bounds
	gt, err := s.catalog.GameType(r.Context(), req.GameTypeID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeMsg(w, http.StatusNotFound, "game type not found")
			return
		}
		writeMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	min, max := gt.Bounds()
	if req.Amount < min {
		writeMsg(w, http.StatusBadRequest, fmt.Sprintf("minimum stake is %d", min))
		return
	}
	if req.Amount > max {
		writeMsg(w, http.StatusBadRequest, fmt.Sprintf("maximum stake is %d", max))
		return
	}

	// 3) record the pending bet
	betID, err := s.repo.CreatePending(r.Context(), &repo.Bet{
		UserID:     req.UserID,
		MarketID:   req.MarketID,
		GameTypeID: req.GameTypeID,
		Amount:     req.Amount,
		Numbers:    req.Numbers,
		Team:       req.Team,
	})
	if err != nil {
		writeMsg(w, http.StatusInternalServerError, err.Error())
		return
	}

	// 4) reserve the stake (external_ref = betID); an unreserved pending bet
	// would be paid at settlement, so it must not survive a failed reserve
	if _, err := s.wcli.Reserve(r.Context(), req.UserID, req.Amount, betID); err != nil {
		if derr := s.repo.Delete(r.Context(), betID); derr != nil {
			s.log.Error("orphan bet cleanup failed", zap.String("betId", betID), zap.Error(derr))
		}
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			writeMsg(w, http.StatusConflict, "insufficient balance")
			return
		}
		writeMsg(w, http.StatusBadGateway, "wallet reserve failed")
		return
	}

	// 5) announce
	if err := s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
		BetID:       betID,
		UserID:      req.UserID,
		MarketID:    req.MarketID,
		GameTypeID:  req.GameTypeID,
		Amount:      req.Amount,
		Numbers:     req.Numbers,
		Team:        req.Team,
		ReservedRef: betID,
	}); err != nil {
		s.log.Warn("bet_placed publish failed", zap.String("betId", betID), zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, dto.PlaceBetResponse{
		BetID:  betID,
		Status: string(repo.StatusPending),
	})
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	b, err := s.repo.GetBet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			writeMsg(w, http.StatusNotFound, "not found")
			return
		}
		writeMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toBetResponse(b))
}

func (s *Server) listUserBets(w http.ResponseWriter, r *http.Request) {
	bets, err := s.repo.ListByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]dto.BetResponse, 0, len(bets))
	for i := range bets {
		out = append(out, toBetResponse(&bets[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.notif.List(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func toBetResponse(b *repo.Bet) dto.BetResponse {
	return dto.BetResponse{
		BetID:      b.ID,
		UserID:     b.UserID,
		MarketID:   b.MarketID,
		GameTypeID: b.GameTypeID,
		Amount:     b.Amount,
		Numbers:    b.Numbers,
		Team:       b.Team,
		Status:     string(b.Status),
		Payout:     b.Payout,
		CreatedAt:  b.CreatedAt,
		SettledAt:  b.SettledAt,
	}
}
