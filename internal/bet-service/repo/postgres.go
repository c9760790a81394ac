package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrNotFound = errors.New("not found")

// Postgres persists bets.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreatePending inserts a new bet with status pending.
func (p *Postgres) CreatePending(ctx context.Context, b *Bet) (string, error) {
	id := uuid.NewString()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (id,user_id,market_id,game_type_id,amount,numbers,team,status,payout,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',0,NOW())`,
		id, b.UserID, b.MarketID, b.GameTypeID, b.Amount, pq.Array(b.Numbers), b.Team,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Delete removes a bet whose stake reservation failed. Only pending bets may
// go away; settled rows are history.
func (p *Postgres) Delete(ctx context.Context, betID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM bets WHERE id=$1 AND status='pending'`, betID)
	return err
}

func (p *Postgres) GetBet(ctx context.Context, betID string) (*Bet, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id,user_id,market_id,game_type_id,amount,numbers,team,status,payout,created_at,settled_at
		FROM bets WHERE id=$1`, betID)

	var b Bet
	var numbers pq.Int64Array
	err := row.Scan(&b.ID, &b.UserID, &b.MarketID, &b.GameTypeID, &b.Amount, &numbers, &b.Team, &b.Status, &b.Payout, &b.CreatedAt, &b.SettledAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	for _, n := range numbers {
		b.Numbers = append(b.Numbers, int(n))
	}
	return &b, nil
}

func (p *Postgres) ListByUser(ctx context.Context, userID string) ([]Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id,user_id,market_id,game_type_id,amount,numbers,team,status,payout,created_at,settled_at
		FROM bets WHERE user_id=$1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bet
	for rows.Next() {
		var b Bet
		var numbers pq.Int64Array
		if err := rows.Scan(&b.ID, &b.UserID, &b.MarketID, &b.GameTypeID, &b.Amount, &numbers, &b.Team, &b.Status, &b.Payout, &b.CreatedAt, &b.SettledAt); err != nil {
			return nil, err
		}
		for _, n := range numbers {
			b.Numbers = append(b.Numbers, int(n))
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
