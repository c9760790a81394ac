package settler

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/numdraw/bet-platform/pkg/contracts/events"
)

type fakeRepo struct {
	bets    []Bet
	settled map[string]struct {
		status string
		payout int64
	}
}

func (f *fakeRepo) PendingByMarket(_ context.Context, marketID string) ([]Bet, error) {
	var out []Bet
	for _, b := range f.bets {
		if b.MarketID != marketID {
			continue
		}
		if _, ok := f.settled[b.ID]; ok {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeRepo) MarkSettled(_ context.Context, betID, status string, payout int64) error {
	if f.settled == nil {
		f.settled = map[string]struct {
			status string
			payout int64
		}{}
	}
	f.settled[betID] = struct {
		status string
		payout int64
	}{status, payout}
	return nil
}

type fakeWallet struct {
	commits   []string
	payouts   map[string]int64
	commitErr error
	payoutErr error
}

func (f *fakeWallet) Commit(_ context.Context, _, ref string) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits = append(f.commits, ref)
	return nil
}

func (f *fakeWallet) Payout(_ context.Context, _ string, amount int64, ref string) error {
	if f.payoutErr != nil {
		return f.payoutErr
	}
	if f.payouts == nil {
		f.payouts = map[string]int64{}
	}
	f.payouts[ref] = amount
	return nil
}

type fakeNotifier struct{ titles []string }

func (f *fakeNotifier) Push(_ context.Context, _, title, _ string) error {
	f.titles = append(f.titles, title)
	return nil
}

type fakePublisher struct{ events []events.BetSettled }

func (f *fakePublisher) PublishBetSettled(_ context.Context, e events.BetSettled) error {
	f.events = append(f.events, e)
	return nil
}

func newSettler(repo *fakeRepo) (*Settler, *fakeWallet, *fakeNotifier, *fakePublisher) {
	w := &fakeWallet{}
	n := &fakeNotifier{}
	p := &fakePublisher{}
	return &Settler{Log: zap.NewNop(), Repo: repo, Wallet: w, Notifier: n, Publ: p}, w, n, p
}

func TestNumbersHit(t *testing.T) {
	cases := []struct {
		name    string
		numbers []int
		result  string
		want    bool
	}{
		{"exact match", []int{45}, "45", true},
		{"digit inside result", []int{4}, "45", true},
		{"second number matches", []int{9, 5}, "45", true},
		{"no overlap", []int{9}, "45", false},
		{"single digit hits multi digit", []int{1}, "10", true},
		{"empty selection", nil, "45", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NumbersHit(tc.numbers, tc.result); got != tc.want {
				t.Errorf("NumbersHit(%v, %q) = %v, want %v", tc.numbers, tc.result, got, tc.want)
			}
		})
	}
}

func TestSettleMarketOutcomes(t *testing.T) {
	repo := &fakeRepo{bets: []Bet{
		{ID: "b1", UserID: "u1", MarketID: "m1", GameTypeID: "gt1", Amount: 100, Numbers: []int{4, 5}, Odds: 9.5},
		{ID: "b2", UserID: "u2", MarketID: "m1", GameTypeID: "gt1", Amount: 50, Numbers: []int{9}, Odds: 9.5},
		{ID: "b3", UserID: "u3", MarketID: "m1", GameTypeID: "gt-other", Amount: 20, Numbers: []int{4}, Odds: 2},
		{ID: "b4", UserID: "u4", MarketID: "m2", GameTypeID: "gt1", Amount: 30, Numbers: []int{4}, Odds: 2},
	}}
	s, w, n, p := newSettler(repo)

	ev := events.ResultDeclared{MarketID: "m1", Results: map[string]string{"gt1": "45"}}
	if err := s.SettleMarket(context.Background(), ev); err != nil {
		t.Fatalf("SettleMarket: %v", err)
	}

	if got := repo.settled["b1"]; got.status != "won" || got.payout != 950 {
		t.Errorf("b1 settled as %+v, want won with payout 950", got)
	}
	if got := repo.settled["b2"]; got.status != "lost" || got.payout != 0 {
		t.Errorf("b2 settled as %+v, want lost with payout 0", got)
	}
	if _, ok := repo.settled["b3"]; ok {
		t.Error("b3 has no declared result for its game type, should stay pending")
	}
	if _, ok := repo.settled["b4"]; ok {
		t.Error("b4 belongs to another market, must be untouched")
	}

	if len(w.commits) != 2 {
		t.Errorf("got %d wallet commits, want 2", len(w.commits))
	}
	if w.payouts["b1"] != 950 {
		t.Errorf("winner payout = %d, want 950", w.payouts["b1"])
	}
	if _, ok := w.payouts["b2"]; ok {
		t.Error("loser must not receive a payout")
	}

	if len(n.titles) != 2 || len(p.events) != 2 {
		t.Errorf("got %d notifications and %d events, want 2 and 2", len(n.titles), len(p.events))
	}
	for _, e := range p.events {
		if e.BetID == "b1" && e.Status != "won" {
			t.Errorf("b1 event status = %q, want won", e.Status)
		}
		if e.BetID == "b2" && e.Status != "lost" {
			t.Errorf("b2 event status = %q, want lost", e.Status)
		}
	}
}

func TestSettleMarketWalletOutage(t *testing.T) {
	repo := &fakeRepo{bets: []Bet{
		{ID: "b1", UserID: "u1", MarketID: "m1", GameTypeID: "gt1", Amount: 100, Numbers: []int{4, 5}, Odds: 9.5},
	}}
	s, w, _, p := newSettler(repo)
	w.payoutErr = errors.New("wallet unavailable")

	ev := events.ResultDeclared{MarketID: "m1", Results: map[string]string{"gt1": "45"}}
	if err := s.SettleMarket(context.Background(), ev); err == nil {
		t.Fatal("SettleMarket must report a failed payout so the event is redelivered")
	}
	if _, ok := repo.settled["b1"]; ok {
		t.Fatal("b1 must stay pending while the payout is uncredited")
	}
	if len(p.events) != 0 {
		t.Errorf("got %d bet_settled events before the payout landed, want 0", len(p.events))
	}

	// redelivery after the wallet recovers settles the bet and credits the win
	w.payoutErr = nil
	if err := s.SettleMarket(context.Background(), ev); err != nil {
		t.Fatalf("SettleMarket after recovery: %v", err)
	}
	if got := repo.settled["b1"]; got.status != "won" || got.payout != 950 {
		t.Errorf("b1 settled as %+v, want won with payout 950", got)
	}
	if w.payouts["b1"] != 950 {
		t.Errorf("winner payout = %d, want 950", w.payouts["b1"])
	}

	// a commit failure must keep the bet pending the same way
	repo2 := &fakeRepo{bets: []Bet{
		{ID: "b2", UserID: "u2", MarketID: "m1", GameTypeID: "gt1", Amount: 50, Numbers: []int{9}, Odds: 9.5},
	}}
	s2, w2, _, _ := newSettler(repo2)
	w2.commitErr = errors.New("wallet unavailable")
	if err := s2.SettleMarket(context.Background(), ev); err == nil {
		t.Fatal("SettleMarket must report a failed commit")
	}
	if _, ok := repo2.settled["b2"]; ok {
		t.Error("b2 must stay pending while the stake hold is unfinalized")
	}
}

func TestSettleMarketPayoutRounding(t *testing.T) {
	repo := &fakeRepo{bets: []Bet{
		{ID: "b1", UserID: "u1", MarketID: "m1", GameTypeID: "gt1", Amount: 10, Numbers: []int{7}, Odds: 1.25},
	}}
	s, _, _, _ := newSettler(repo)

	ev := events.ResultDeclared{MarketID: "m1", Results: map[string]string{"gt1": "7"}}
	if err := s.SettleMarket(context.Background(), ev); err != nil {
		t.Fatalf("SettleMarket: %v", err)
	}
	if got := repo.settled["b1"].payout; got != 13 {
		t.Errorf("payout = %d, want 13 (10 * 1.25 rounded)", got)
	}
}

func TestSettleToss(t *testing.T) {
	repo := &fakeRepo{bets: []Bet{
		{ID: "b1", UserID: "u1", MarketID: "t1", GameTypeID: "gt1", Amount: 100, Team: "India", Odds: 1.9},
		{ID: "b2", UserID: "u2", MarketID: "t1", GameTypeID: "gt1", Amount: 100, Team: "Australia", Odds: 1.9},
	}}
	s, w, _, _ := newSettler(repo)

	ev := events.TossResultDeclared{TossID: "t1", Winner: "India"}
	if err := s.SettleToss(context.Background(), ev); err != nil {
		t.Fatalf("SettleToss: %v", err)
	}

	if got := repo.settled["b1"]; got.status != "won" || got.payout != 190 {
		t.Errorf("b1 settled as %+v, want won with payout 190", got)
	}
	if got := repo.settled["b2"]; got.status != "lost" {
		t.Errorf("b2 settled as %+v, want lost", got)
	}
	if w.payouts["b1"] != 190 {
		t.Errorf("winner payout = %d, want 190", w.payouts["b1"])
	}
}
