package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/numdraw/bet-platform/internal/market-service/lifecycle"
	"github.com/numdraw/bet-platform/internal/market-service/model"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrSlugTaken    = errors.New("slug already in use")
	ErrUnknownGames = errors.New("unknown game type")
)

// Postgres implements the catalog and lifecycle persistence over Postgres.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreateGameType assigns a new id and stores the definition as supplied.
// There is no duplicate-name check; blank rules are filtered at the DTO edge.
func (p *Postgres) CreateGameType(ctx context.Context, g *model.GameType) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO game_types (id,name,description,rules,odds,min_stake,max_stake,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())`,
		id, g.Name, g.Description, pq.Array(g.Rules), g.Odds, g.MinStake, g.MaxStake,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) GetGameType(ctx context.Context, id string) (*model.GameType, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id,name,description,rules,odds,min_stake,max_stake,created_at
		FROM game_types WHERE id=$1`, id)
	return scanGameType(row)
}

func (p *Postgres) ListGameTypes(ctx context.Context) ([]model.GameType, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id,name,description,rules,odds,min_stake,max_stake,created_at
		FROM game_types ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GameType
	for rows.Next() {
		g, err := scanGameType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanGameType(r rowScanner) (*model.GameType, error) {
	var g model.GameType
	err := r.Scan(&g.ID, &g.Name, &g.Description, pq.Array(&g.Rules), &g.Odds, &g.MinStake, &g.MaxStake, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateMarket resolves every referenced game type and writes the market plus
// one MarketGame per id, in order, with the market's initial status. An
// unknown game type fails the whole operation.
func (p *Postgres) CreateMarket(ctx context.Context, m *model.Market, gameTypeIDs []string) (*model.Market, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m.ID = uuid.NewString()
	m.Games = nil
	m.Results = nil
	m.CreatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO markets (id,name,slug,status,countdown,next_draw,description,image_url,opens_at,closes_at,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		m.ID, m.Name, m.Slug, m.Status, m.Countdown, m.NextDraw, m.Description, m.ImageURL, m.OpensAt, m.ClosesAt, m.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	for i, gtID := range gameTypeIDs {
		row := tx.QueryRowContext(ctx, `
			SELECT id,name,description,rules,odds,min_stake,max_stake,created_at
			FROM game_types WHERE id=$1`, gtID)
		gt, err := scanGameType(row)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownGames, gtID)
			}
			return nil, err
		}

		mg := model.MarketGame{
			ID:         uuid.NewString(),
			MarketID:   m.ID,
			GameTypeID: gt.ID,
			GameType:   *gt,
			Status:     m.Status,
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO market_games (id,market_id,game_type_id,status,position)
			VALUES ($1,$2,$3,$4,$5)`,
			mg.ID, mg.MarketID, mg.GameTypeID, mg.Status, i,
		); err != nil {
			return nil, err
		}
		m.Games = append(m.Games, mg)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Postgres) GetMarket(ctx context.Context, id string) (*model.Market, error) {
	return p.getMarket(ctx, `WHERE id=$1`, id)
}

func (p *Postgres) GetMarketBySlug(ctx context.Context, slug string) (*model.Market, error) {
	return p.getMarket(ctx, `WHERE slug=$1`, slug)
}

func (p *Postgres) getMarket(ctx context.Context, where string, arg any) (*model.Market, error) {
	var m model.Market
	err := p.db.QueryRowContext(ctx, `
		SELECT id,name,slug,status,countdown,next_draw,description,image_url,opens_at,closes_at,created_at
		FROM markets `+where, arg).
		Scan(&m.ID, &m.Name, &m.Slug, &m.Status, &m.Countdown, &m.NextDraw, &m.Description, &m.ImageURL, &m.OpensAt, &m.ClosesAt, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if m.Games, err = p.marketGames(ctx, m.ID); err != nil {
		return nil, err
	}
	if m.Results, err = p.marketResults(ctx, m.ID); err != nil {
		return nil, err
	}
	return &m, nil
}

func (p *Postgres) ListMarkets(ctx context.Context) ([]model.Market, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id,name,slug,status,countdown,next_draw,description,image_url,opens_at,closes_at,created_at
		FROM markets ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Market
	for rows.Next() {
		var m model.Market
		if err := rows.Scan(&m.ID, &m.Name, &m.Slug, &m.Status, &m.Countdown, &m.NextDraw, &m.Description, &m.ImageURL, &m.OpensAt, &m.ClosesAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Games, err = p.marketGames(ctx, out[i].ID); err != nil {
			return nil, err
		}
		if out[i].Results, err = p.marketResults(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Postgres) marketGames(ctx context.Context, marketID string) ([]model.MarketGame, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT mg.id, mg.market_id, mg.game_type_id, mg.status,
		       gt.id, gt.name, gt.description, gt.rules, gt.odds, gt.min_stake, gt.max_stake, gt.created_at
		FROM market_games mg
		JOIN game_types gt ON gt.id = mg.game_type_id
		WHERE mg.market_id=$1
		ORDER BY mg.position`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MarketGame
	for rows.Next() {
		var mg model.MarketGame
		var gt model.GameType
		if err := rows.Scan(&mg.ID, &mg.MarketID, &mg.GameTypeID, &mg.Status,
			&gt.ID, &gt.Name, &gt.Description, pq.Array(&gt.Rules), &gt.Odds, &gt.MinStake, &gt.MaxStake, &gt.CreatedAt); err != nil {
			return nil, err
		}
		mg.GameType = gt
		out = append(out, mg)
	}
	return out, rows.Err()
}

func (p *Postgres) marketResults(ctx context.Context, marketID string) ([]model.MarketResult, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, market_id, display_date, results, declared_at
		FROM market_results
		WHERE market_id=$1
		ORDER BY declared_at DESC`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MarketResult
	for rows.Next() {
		var mr model.MarketResult
		var raw []byte
		if err := rows.Scan(&mr.ID, &mr.MarketID, &mr.DisplayDate, &raw, &mr.DeclaredAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &mr.Results); err != nil {
			return nil, err
		}
		out = append(out, mr)
	}
	return out, rows.Err()
}

// UpdateMarketStatus writes the new status on the market and cascades it onto
// every owned market game in the same transaction.
func (p *Postgres) UpdateMarketStatus(ctx context.Context, marketID string, status lifecycle.Status) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE markets SET status=$1 WHERE id=$2`, status, marketID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `UPDATE market_games SET status=$1 WHERE market_id=$2`, status, marketID); err != nil {
		return err
	}

	return tx.Commit()
}

// DeclareResult forces the market (and its games) to closed and prepends a
// result entry, all in one transaction.
func (p *Postgres) DeclareResult(ctx context.Context, marketID string, results map[string]string, displayDate string) (*model.MarketResult, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE markets SET status=$1 WHERE id=$2`, lifecycle.StatusClosed, marketID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE market_games SET status=$1 WHERE market_id=$2`, lifecycle.StatusClosed, marketID); err != nil {
		return nil, err
	}

	mr := &model.MarketResult{
		ID:          uuid.NewString(),
		MarketID:    marketID,
		DisplayDate: displayDate,
		Results:     results,
		DeclaredAt:  time.Now(),
	}
	raw, err := json.Marshal(mr.Results)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO market_results (id,market_id,display_date,results,declared_at)
		VALUES ($1,$2,$3,$4,$5)`,
		mr.ID, mr.MarketID, mr.DisplayDate, raw, mr.DeclaredAt,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return mr, nil
}

func (p *Postgres) CreateTossGame(ctx context.Context, t *model.TossGame) (string, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO toss_games (id,title,team_a,team_b,status,start_time,image_url,winner,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'',$8)`,
		t.ID, t.Title, t.TeamA, t.TeamB, t.Status, t.StartTime, t.ImageURL, t.CreatedAt,
	)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

func (p *Postgres) GetTossGame(ctx context.Context, id string) (*model.TossGame, error) {
	var t model.TossGame
	err := p.db.QueryRowContext(ctx, `
		SELECT id,title,team_a,team_b,status,start_time,image_url,winner,created_at
		FROM toss_games WHERE id=$1`, id).
		Scan(&t.ID, &t.Title, &t.TeamA, &t.TeamB, &t.Status, &t.StartTime, &t.ImageURL, &t.Winner, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (p *Postgres) ListTossGames(ctx context.Context) ([]model.TossGame, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id,title,team_a,team_b,status,start_time,image_url,winner,created_at
		FROM toss_games ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TossGame
	for rows.Next() {
		var t model.TossGame
		if err := rows.Scan(&t.ID, &t.Title, &t.TeamA, &t.TeamB, &t.Status, &t.StartTime, &t.ImageURL, &t.Winner, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateTossStatus(ctx context.Context, id string, status lifecycle.Status) error {
	res, err := p.db.ExecContext(ctx, `UPDATE toss_games SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeclareTossResult records the winning team and forces the game closed.
func (p *Postgres) DeclareTossResult(ctx context.Context, id string, winner string) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE toss_games SET status=$1, winner=$2 WHERE id=$3`,
		lifecycle.StatusClosed, winner, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DueToOpen returns upcoming markets whose opens_at has passed. Used by the
// market-scheduler sweep.
func (p *Postgres) DueToOpen(ctx context.Context, now time.Time) ([]string, error) {
	return p.dueMarkets(ctx, `SELECT id FROM markets WHERE status=$1 AND opens_at IS NOT NULL AND opens_at <= $2`, lifecycle.StatusUpcoming, now)
}

// DueToClose returns open markets whose closes_at has passed.
func (p *Postgres) DueToClose(ctx context.Context, now time.Time) ([]string, error) {
	return p.dueMarkets(ctx, `SELECT id FROM markets WHERE status=$1 AND closes_at IS NOT NULL AND closes_at <= $2`, lifecycle.StatusOpen, now)
}

func (p *Postgres) dueMarkets(ctx context.Context, q string, status lifecycle.Status, now time.Time) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, q, status, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
