package settler

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/numdraw/bet-platform/pkg/contracts/events"
)

// Bet is the settlement view of a wager: selection plus the game-type payout
// multiplier joined in at read time.
type Bet struct {
	ID         string
	UserID     string
	MarketID   string
	GameTypeID string
	Amount     int64
	Numbers    []int
	Team       string
	Odds       float64
}

type Repo interface {
	PendingByMarket(ctx context.Context, marketID string) ([]Bet, error)
	MarkSettled(ctx context.Context, betID, status string, payout int64) error
}

// Wallet finalizes the stake hold and credits winnings.
type Wallet interface {
	Commit(ctx context.Context, userID, externalRef string) error
	Payout(ctx context.Context, userID string, amount int64, externalRef string) error
}

type Notifier interface {
	Push(ctx context.Context, userID, title, message string) error
}

type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// Settler marks pending bets won or lost once a result is declared.
type Settler struct {
	Log      *zap.Logger
	Repo     Repo
	Wallet   Wallet
	Notifier Notifier
	Publ     Publisher

	OnSettled func(status string) // metrics (counter++ per outcome)
}

// NumbersHit reports whether any selected number, stringified, appears as a
// substring of the declared result string. This is the matching rule the
// product shipped with: selecting 1 also hits "10" or "21".
func NumbersHit(numbers []int, result string) bool {
	for _, n := range numbers {
		if strings.Contains(result, strconv.Itoa(n)) {
			return true
		}
	}
	return false
}

// SettleMarket walks every pending bet of the market. Bets whose game type is
// absent from the declared results map are left pending, untouched.
func (s *Settler) SettleMarket(ctx context.Context, ev events.ResultDeclared) error {
	bets, err := s.Repo.PendingByMarket(ctx, ev.MarketID)
	if err != nil {
		return fmt.Errorf("pending bets for market %s: %w", ev.MarketID, err)
	}

	var firstErr error
	for _, bet := range bets {
		result, ok := ev.Results[bet.GameTypeID]
		if !ok {
			continue
		}
		if err := s.settleOne(ctx, bet, NumbersHit(bet.Numbers, result)); err != nil {
			s.Log.Error("settle bet failed", zap.String("betId", bet.ID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SettleToss settles pending toss bets: won iff the selected team equals the
// declared winner.
func (s *Settler) SettleToss(ctx context.Context, ev events.TossResultDeclared) error {
	bets, err := s.Repo.PendingByMarket(ctx, ev.TossID)
	if err != nil {
		return fmt.Errorf("pending bets for toss %s: %w", ev.TossID, err)
	}

	var firstErr error
	for _, bet := range bets {
		if err := s.settleOne(ctx, bet, bet.Team == ev.Winner); err != nil {
			s.Log.Error("settle toss bet failed", zap.String("betId", bet.ID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Settler) settleOne(ctx context.Context, bet Bet, won bool) error {
	status := "lost"
	var payout int64
	if won {
		status = "won"
		payout = int64(math.Round(float64(bet.Amount) * bet.Odds))
	}

	// Wallet first: finalize the stake hold, then credit winnings on top for
	// winners. Both ops are idempotent per betID, and the bet only leaves
	// pending once the money moved, so a wallet failure here surfaces to the
	// consumer and the redelivered event finds the bet again.
	if err := s.Wallet.Commit(ctx, bet.UserID, bet.ID); err != nil {
		return fmt.Errorf("wallet commit bet %s: %w", bet.ID, err)
	}
	if won {
		if err := s.Wallet.Payout(ctx, bet.UserID, payout, bet.ID); err != nil {
			return fmt.Errorf("wallet payout bet %s: %w", bet.ID, err)
		}
	}

	if err := s.Repo.MarkSettled(ctx, bet.ID, status, payout); err != nil {
		return err
	}
	if s.OnSettled != nil {
		s.OnSettled(status)
	}

	title, message := "Better luck next time", fmt.Sprintf("Your bet of %d was lost.", bet.Amount)
	if won {
		title, message = "You won!", fmt.Sprintf("Your bet of %d paid out %d.", bet.Amount, payout)
	}
	if err := s.Notifier.Push(ctx, bet.UserID, title, message); err != nil {
		s.Log.Warn("notification push failed", zap.String("userId", bet.UserID), zap.Error(err))
	}

	if err := s.Publ.PublishBetSettled(ctx, events.BetSettled{
		BetID:    bet.ID,
		UserID:   bet.UserID,
		MarketID: bet.MarketID,
		Status:   status,
		Payout:   payout,
		Ts:       time.Now().UTC(),
	}); err != nil {
		s.Log.Warn("bet_settled publish failed", zap.String("betId", bet.ID), zap.Error(err))
	}

	return nil
}
