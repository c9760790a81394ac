package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/numdraw/bet-platform/internal/market-service/dto"
	"github.com/numdraw/bet-platform/internal/market-service/lifecycle"
	"github.com/numdraw/bet-platform/internal/market-service/model"
	"github.com/numdraw/bet-platform/internal/market-service/pubsub"
	"github.com/numdraw/bet-platform/internal/market-service/repo"
	"github.com/numdraw/bet-platform/pkg/contracts/events"
)

// Store is the catalog/lifecycle persistence used by the handlers. Satisfied
// by repo.Postgres and repo.Memory.
type Store interface {
	CreateGameType(ctx context.Context, g *model.GameType) (string, error)
	GetGameType(ctx context.Context, id string) (*model.GameType, error)
	ListGameTypes(ctx context.Context) ([]model.GameType, error)

	CreateMarket(ctx context.Context, m *model.Market, gameTypeIDs []string) (*model.Market, error)
	GetMarket(ctx context.Context, id string) (*model.Market, error)
	GetMarketBySlug(ctx context.Context, slug string) (*model.Market, error)
	ListMarkets(ctx context.Context) ([]model.Market, error)
	UpdateMarketStatus(ctx context.Context, marketID string, status lifecycle.Status) error
	DeclareResult(ctx context.Context, marketID string, results map[string]string, displayDate string) (*model.MarketResult, error)

	CreateTossGame(ctx context.Context, t *model.TossGame) (string, error)
	GetTossGame(ctx context.Context, id string) (*model.TossGame, error)
	ListTossGames(ctx context.Context) ([]model.TossGame, error)
	UpdateTossStatus(ctx context.Context, id string, status lifecycle.Status) error
	DeclareTossResult(ctx context.Context, id string, winner string) error
}

// StatusCache mirrors statuses and game types into Redis for bet-service.
type StatusCache interface {
	SetMarketStatus(ctx context.Context, marketID string, st lifecycle.Status) error
	SetTossStatus(ctx context.Context, tossID string, st lifecycle.Status) error
	SetGameType(ctx context.Context, gt model.GameType) error
}

// Publisher emits result declarations for the settlement-worker.
type Publisher interface {
	PublishResultDeclared(ctx context.Context, e events.ResultDeclared) error
	PublishTossResultDeclared(ctx context.Context, e events.TossResultDeclared) error
}

// Broadcaster pushes live updates toward the WS hub via Redis Pub/Sub.
type Broadcaster interface {
	PublishMarketUpdate(ctx context.Context, upd pubsub.WSUpdate) error
}

type Server struct {
	log      *zap.Logger
	store    Store
	cache    StatusCache
	publ     Publisher
	bcast    Broadcaster
	handleWS http.HandlerFunc
}

func NewServer(log *zap.Logger, store Store, cache StatusCache, publ Publisher, bcast Broadcaster, handleWS http.HandlerFunc) *Server {
	return &Server{log: log, store: store, cache: cache, publ: publ, bcast: bcast, handleWS: handleWS}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/game-types", s.createGameType)
	r.Get("/v1/game-types", s.listGameTypes)
	r.Get("/v1/game-types/{id}", s.getGameType)

	r.Post("/v1/markets", s.createMarket)
	r.Get("/v1/markets", s.listMarkets)
	r.Get("/v1/markets/{id}", s.getMarket)
	r.Get("/v1/markets/slug/{slug}", s.getMarketBySlug)
	r.Patch("/v1/markets/{id}/status", s.updateMarketStatus)
	r.Post("/v1/markets/{id}/results", s.declareResult)

	r.Post("/v1/toss-games", s.createTossGame)
	r.Get("/v1/toss-games", s.listTossGames)
	r.Get("/v1/toss-games/{id}", s.getTossGame)
	r.Patch("/v1/toss-games/{id}/status", s.updateTossStatus)
	r.Post("/v1/toss-games/{id}/result", s.declareTossResult)

	if s.handleWS != nil {
		r.Get("/ws", s.handleWS)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) createGameType(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGameTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := req.Validate(); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	// blank rules are dropped before storage
	rules := make([]string, 0, len(req.Rules))
	for _, rule := range req.Rules {
		if rule != "" {
			rules = append(rules, rule)
		}
	}

	gt := &model.GameType{
		Name:        req.Name,
		Description: req.Description,
		Rules:       rules,
		Odds:        req.Odds,
		MinStake:    req.MinStake,
		MaxStake:    req.MaxStake,
	}
	id, err := s.store.CreateGameType(r.Context(), gt)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	gt.ID = id

	if err := s.cache.SetGameType(r.Context(), *gt); err != nil {
		s.log.Warn("game type cache set failed", zap.String("gameTypeId", id), zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, gt)
}

func (s *Server) getGameType(w http.ResponseWriter, r *http.Request) {
	gt, err := s.store.GetGameType(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gt)
}

func (s *Server) listGameTypes(w http.ResponseWriter, r *http.Request) {
	gts, err := s.store.ListGameTypes(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, gts)
}

func (s *Server) createMarket(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := req.Validate(); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	m := &model.Market{
		Name:        req.Name,
		Slug:        req.Slug,
		Status:      lifecycle.Status(req.Status),
		Countdown:   req.Countdown,
		NextDraw:    req.NextDraw,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		OpensAt:     req.OpensAt,
		ClosesAt:    req.ClosesAt,
	}
	m, err := s.store.CreateMarket(r.Context(), m, req.GameTypeIDs)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrUnknownGames):
			writeErr(w, http.StatusBadRequest, err)
		case errors.Is(err, repo.ErrSlugTaken):
			writeErr(w, http.StatusConflict, err)
		default:
			writeErr(w, http.StatusInternalServerError, err)
		}
		return
	}

	if err := s.cache.SetMarketStatus(r.Context(), m.ID, m.Status); err != nil {
		s.log.Warn("market status cache set failed", zap.String("marketId", m.ID), zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) getMarket(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMarket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) getMarketBySlug(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMarketBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) listMarkets(w http.ResponseWriter, r *http.Request) {
	ms, err := s.store.ListMarkets(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (s *Server) updateMarketStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := req.Validate(); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	m, err := s.store.GetMarket(r.Context(), id)
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}

	next := lifecycle.Status(req.Status)
	if err := lifecycle.Transition(m.Status, next); err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	if err := s.store.UpdateMarketStatus(r.Context(), id, next); err != nil {
		s.writeStoreErr(w, err)
		return
	}
	s.mirrorMarketStatus(r.Context(), id, next)

	writeJSON(w, http.StatusOK, map[string]string{"marketId": id, "status": string(next)})
}

func (s *Server) declareResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dto.DeclareResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := req.Validate(); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	displayDate := req.Date
	if displayDate == "" {
		displayDate = time.Now().Format("02 Jan 2006")
	}

	mr, err := s.store.DeclareResult(r.Context(), id, req.Results, displayDate)
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	s.mirrorMarketStatus(r.Context(), id, lifecycle.StatusClosed)

	if err := s.publ.PublishResultDeclared(r.Context(), events.ResultDeclared{
		MarketID:    id,
		ResultID:    mr.ID,
		Results:     mr.Results,
		DisplayDate: mr.DisplayDate,
		DeclaredAt:  mr.DeclaredAt,
	}); err != nil {
		// settlement will miss the event; surface loudly but keep the result
		s.log.Error("result_declared publish failed", zap.String("marketId", id), zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, mr)
}

func (s *Server) createTossGame(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTossGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := req.Validate(); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	t := &model.TossGame{
		Title:     req.Title,
		TeamA:     req.TeamA,
		TeamB:     req.TeamB,
		Status:    lifecycle.Status(req.Status),
		StartTime: req.StartTime,
		ImageURL:  req.ImageURL,
	}
	id, err := s.store.CreateTossGame(r.Context(), t)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.cache.SetTossStatus(r.Context(), id, t.Status); err != nil {
		s.log.Warn("toss status cache set failed", zap.String("tossId", id), zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) getTossGame(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTossGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) listTossGames(w http.ResponseWriter, r *http.Request) {
	ts, err := s.store.ListTossGames(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) updateTossStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := req.Validate(); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	t, err := s.store.GetTossGame(r.Context(), id)
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}

	next := lifecycle.Status(req.Status)
	if err := lifecycle.Transition(t.Status, next); err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	if err := s.store.UpdateTossStatus(r.Context(), id, next); err != nil {
		s.writeStoreErr(w, err)
		return
	}
	if err := s.cache.SetTossStatus(r.Context(), id, next); err != nil {
		s.log.Warn("toss status cache set failed", zap.String("tossId", id), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]string{"tossId": id, "status": string(next)})
}

func (s *Server) declareTossResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dto.DeclareTossResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
		return
	}
	if err := req.Validate(); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	t, err := s.store.GetTossGame(r.Context(), id)
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}
	if req.Winner != t.TeamA && req.Winner != t.TeamB {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "winner must be one of the two teams"})
		return
	}

	if err := s.store.DeclareTossResult(r.Context(), id, req.Winner); err != nil {
		s.writeStoreErr(w, err)
		return
	}
	if err := s.cache.SetTossStatus(r.Context(), id, lifecycle.StatusClosed); err != nil {
		s.log.Warn("toss status cache set failed", zap.String("tossId", id), zap.Error(err))
	}

	declaredAt := time.Now()
	if err := s.publ.PublishTossResultDeclared(r.Context(), events.TossResultDeclared{
		TossID:     id,
		Winner:     req.Winner,
		DeclaredAt: declaredAt,
	}); err != nil {
		s.log.Error("toss_result_declared publish failed", zap.String("tossId", id), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]string{"tossId": id, "winner": req.Winner, "status": string(lifecycle.StatusClosed)})
}

// mirrorMarketStatus updates the Redis mirror and notifies WS subscribers.
// Both are best effort; persistence already succeeded.
func (s *Server) mirrorMarketStatus(ctx context.Context, marketID string, st lifecycle.Status) {
	if err := s.cache.SetMarketStatus(ctx, marketID, st); err != nil {
		s.log.Warn("market status cache set failed", zap.String("marketId", marketID), zap.Error(err))
	}
	if err := s.bcast.PublishMarketUpdate(ctx, pubsub.WSUpdate{
		MarketID: marketID,
		Payload:  map[string]string{"type": "status", "status": string(st)},
	}); err != nil {
		s.log.Warn("market update broadcast failed", zap.String("marketId", marketID), zap.Error(err))
	}
}

func (s *Server) writeStoreErr(w http.ResponseWriter, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeErr(w, http.StatusInternalServerError, err)
}
