package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/numdraw/bet-platform/internal/bet-service/catalog"
	"github.com/numdraw/bet-platform/internal/bet-service/dto"
	"github.com/numdraw/bet-platform/internal/bet-service/repo"
	"github.com/numdraw/bet-platform/internal/bet-service/wallet"
	"github.com/numdraw/bet-platform/internal/market-service/lifecycle"
	"github.com/numdraw/bet-platform/pkg/contracts/events"
)

// stubCatalog serves the mirror from plain maps.
type stubCatalog struct {
	markets   map[string]lifecycle.Status
	toss      map[string]lifecycle.Status
	gameTypes map[string]*catalog.GameType
}

func (c *stubCatalog) MarketStatus(_ context.Context, id string) (lifecycle.Status, error) {
	st, ok := c.markets[id]
	if !ok {
		return "", catalog.ErrNotFound
	}
	return st, nil
}

func (c *stubCatalog) TossStatus(_ context.Context, id string) (lifecycle.Status, error) {
	st, ok := c.toss[id]
	if !ok {
		return "", catalog.ErrNotFound
	}
	return st, nil
}

func (c *stubCatalog) GameType(_ context.Context, id string) (*catalog.GameType, error) {
	gt, ok := c.gameTypes[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return gt, nil
}

type stubWallet struct {
	insufficient bool
	reserved     []int64
}

func (w *stubWallet) Reserve(_ context.Context, _ string, amount int64, _ string) (string, error) {
	if w.insufficient {
		return "", wallet.ErrInsufficientFunds
	}
	w.reserved = append(w.reserved, amount)
	return "res-1", nil
}

type stubPublisher struct{ events []events.BetPlaced }

func (p *stubPublisher) PublishBetPlaced(_ context.Context, e events.BetPlaced) error {
	p.events = append(p.events, e)
	return nil
}

type stubNotifications struct{ msgs []json.RawMessage }

func (n *stubNotifications) List(context.Context, string) ([]json.RawMessage, error) {
	return n.msgs, nil
}

type fixture struct {
	srv     *httptest.Server
	repo    *repo.Memory
	catalog *stubCatalog
	wallet  *stubWallet
	publ    *stubPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo: repo.NewMemory(),
		catalog: &stubCatalog{
			markets:   map[string]lifecycle.Status{"m1": lifecycle.StatusOpen},
			toss:      map[string]lifecycle.Status{"t1": lifecycle.StatusOpen},
			gameTypes: map[string]*catalog.GameType{"gt1": {ID: "gt1", Name: "Jodi", Odds: 9.5}},
		},
		wallet: &stubWallet{},
		publ:   &stubPublisher{},
	}
	api := NewServer(zap.NewNop(), f.repo, f.catalog, f.wallet, f.publ, &stubNotifications{})
	f.srv = httptest.NewServer(api.Router())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) placeBet(t *testing.T, body map[string]any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	res, err := http.Post(f.srv.URL+"/v1/bets", "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func validBet() map[string]any {
	return map[string]any{
		"userId": "u1", "marketId": "m1", "gameTypeId": "gt1",
		"amount": 100, "numbers": []int{4, 5},
	}
}

func TestPlaceBetAccepted(t *testing.T) {
	f := newFixture(t)
	res := f.placeBet(t, validBet())
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		t.Fatalf("http %d, want 201", res.StatusCode)
	}
	var out dto.PlaceBetResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.BetID == "" || out.Status != "pending" {
		t.Fatalf("response %+v, want pending bet with id", out)
	}

	stored, err := f.repo.GetBet(context.Background(), out.BetID)
	if err != nil {
		t.Fatalf("stored bet: %v", err)
	}
	if stored.Status != repo.StatusPending || stored.Amount != 100 {
		t.Errorf("stored bet %+v, want pending with amount 100", stored)
	}

	if len(f.wallet.reserved) != 1 || f.wallet.reserved[0] != 100 {
		t.Errorf("wallet reservations %v, want [100]", f.wallet.reserved)
	}
	if len(f.publ.events) != 1 || f.publ.events[0].BetID != out.BetID {
		t.Errorf("events %+v, want one for bet %s", f.publ.events, out.BetID)
	}
}

func TestPlaceBetAdmissionChecks(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]any)
		setup  func(*fixture)
		want   int
	}{
		{
			name:   "unknown market",
			mutate: func(b map[string]any) { b["marketId"] = "nope" },
			want:   http.StatusNotFound,
		},
		{
			name: "market not open",
			setup: func(f *fixture) {
				f.catalog.markets["m1"] = lifecycle.StatusClosed
			},
			want: http.StatusConflict,
		},
		{
			name: "upcoming market rejected too",
			setup: func(f *fixture) {
				f.catalog.markets["m1"] = lifecycle.StatusUpcoming
			},
			want: http.StatusConflict,
		},
		{
			name:   "unknown game type",
			mutate: func(b map[string]any) { b["gameTypeId"] = "nope" },
			want:   http.StatusNotFound,
		},
		{
			name:   "stake below default minimum",
			mutate: func(b map[string]any) { b["amount"] = 9 },
			want:   http.StatusBadRequest,
		},
		{
			name:   "stake above default maximum",
			mutate: func(b map[string]any) { b["amount"] = 10001 },
			want:   http.StatusBadRequest,
		},
		{
			name: "stake below game type minimum",
			setup: func(f *fixture) {
				min := int64(200)
				f.catalog.gameTypes["gt1"].MinStake = &min
			},
			want: http.StatusBadRequest,
		},
		{
			name:   "empty selection",
			mutate: func(b map[string]any) { b["numbers"] = []int{} },
			want:   http.StatusBadRequest,
		},
		{
			name:   "numbers and team are exclusive",
			mutate: func(b map[string]any) { b["team"] = "India" },
			want:   http.StatusBadRequest,
		},
		{
			name:  "insufficient balance",
			setup: func(f *fixture) { f.wallet.insufficient = true },
			want:  http.StatusConflict,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.setup != nil {
				tc.setup(f)
			}
			body := validBet()
			if tc.mutate != nil {
				tc.mutate(body)
			}

			res := f.placeBet(t, body)
			res.Body.Close()
			if res.StatusCode != tc.want {
				t.Fatalf("http %d, want %d", res.StatusCode, tc.want)
			}
			if len(f.publ.events) != 0 {
				t.Error("rejected bet must not publish bet_placed")
			}
			if bets, _ := f.repo.ListByUser(context.Background(), "u1"); len(bets) != 0 {
				t.Errorf("rejected bet must not persist, found %d", len(bets))
			}
		})
	}
}

func TestPlaceBetBoundaryStakes(t *testing.T) {
	for _, amount := range []int64{10, 10000} {
		f := newFixture(t)
		body := validBet()
		body["amount"] = amount

		res := f.placeBet(t, body)
		res.Body.Close()
		if res.StatusCode != http.StatusCreated {
			t.Errorf("amount %d: http %d, want 201 (bounds are inclusive)", amount, res.StatusCode)
		}
	}
}

func TestPlaceTossBet(t *testing.T) {
	f := newFixture(t)
	res := f.placeBet(t, map[string]any{
		"userId": "u1", "marketId": "t1", "gameTypeId": "gt1",
		"amount": 100, "team": "India",
	})
	res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("http %d, want 201", res.StatusCode)
	}
}

func TestListUserBetsNewestFirst(t *testing.T) {
	f := newFixture(t)
	var ids []string
	for i := 0; i < 3; i++ {
		res := f.placeBet(t, validBet())
		var out dto.PlaceBetResponse
		if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		ids = append(ids, out.BetID)
	}

	res, err := http.Get(f.srv.URL + "/v1/users/u1/bets")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	var bets []dto.BetResponse
	if err := json.NewDecoder(res.Body).Decode(&bets); err != nil {
		t.Fatal(err)
	}
	if len(bets) != 3 {
		t.Fatalf("got %d bets, want 3", len(bets))
	}
	for i := range bets {
		if bets[i].BetID != ids[len(ids)-1-i] {
			t.Fatalf("bets out of order: %v", bets)
		}
	}
}

func TestGetBetNotFound(t *testing.T) {
	f := newFixture(t)
	res, err := http.Get(f.srv.URL + "/v1/bets/nope")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("http %d, want 404", res.StatusCode)
	}
}
