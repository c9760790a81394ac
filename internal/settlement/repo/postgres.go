package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/numdraw/bet-platform/internal/settlement/settler"
)

// Postgres reads pending bets and records settlement outcomes.
//
// The odds multiplier lives on game_types; it is joined in here so the
// settler never talks to the catalog. Toss bets reference their market via
// market_id just like number bets, so a single query serves both paths.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) PendingByMarket(ctx context.Context, marketID string) ([]settler.Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT b.id, b.user_id, b.market_id, b.game_type_id, b.amount, b.numbers, b.team, gt.odds
		FROM bets b
		JOIN game_types gt ON gt.id = b.game_type_id
		WHERE b.market_id = $1 AND b.status = 'pending'
		ORDER BY b.created_at`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settler.Bet
	for rows.Next() {
		var b settler.Bet
		var numbers pq.Int64Array
		if err := rows.Scan(&b.ID, &b.UserID, &b.MarketID, &b.GameTypeID, &b.Amount, &numbers, &b.Team, &b.Odds); err != nil {
			return nil, err
		}
		for _, n := range numbers {
			b.Numbers = append(b.Numbers, int(n))
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// MarkSettled flips a pending bet to its final status. The status guard makes
// redelivered events a no-op.
func (p *Postgres) MarkSettled(ctx context.Context, betID, status string, payout int64) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE bets SET status=$2, payout=$3, settled_at=NOW()
		WHERE id=$1 AND status='pending'`, betID, status, payout)
	return err
}
