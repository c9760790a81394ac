package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/numdraw/bet-platform/internal/wallet-service/dto"
	"github.com/numdraw/bet-platform/internal/wallet-service/repo"
)

// fakeRepo mimics the ledger semantics: a balance per user, holds keyed by
// external ref, payouts idempotent per ref.
type fakeRepo struct {
	balance    map[string]int64
	holds      map[string]int64 // external ref -> held amount
	payouts    map[string]bool
	ledger     map[string][]repo.LedgerEntry
	reserveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		balance: map[string]int64{},
		holds:   map[string]int64{},
		payouts: map[string]bool{},
		ledger:  map[string][]repo.LedgerEntry{},
	}
}

func (f *fakeRepo) GetOrCreateWallet(_ context.Context, userID string) (string, int64, error) {
	return "w-" + userID, f.balance[userID], nil
}

func (f *fakeRepo) Deposit(_ context.Context, userID string, amount int64, _ string) (string, int64, error) {
	f.balance[userID] += amount
	f.ledger[userID] = append(f.ledger[userID], repo.LedgerEntry{Operation: "CREDIT", Amount: amount})
	return "w-" + userID, f.balance[userID], nil
}

func (f *fakeRepo) Reserve(_ context.Context, userID string, amount int64, ref string) (string, error) {
	if f.reserveErr != nil {
		return "", f.reserveErr
	}
	if f.balance[userID] < amount {
		return "", repo.ErrInsufficientFunds
	}
	f.balance[userID] -= amount
	f.holds[ref] = amount
	return "res-" + ref, nil
}

func (f *fakeRepo) Commit(_ context.Context, _, ref string) error {
	delete(f.holds, ref)
	return nil
}

func (f *fakeRepo) Refund(_ context.Context, userID, ref string) error {
	f.balance[userID] += f.holds[ref]
	delete(f.holds, ref)
	return nil
}

func (f *fakeRepo) Payout(_ context.Context, userID string, amount int64, ref string) (int64, error) {
	if !f.payouts[ref] {
		f.payouts[ref] = true
		f.balance[userID] += amount
	}
	return f.balance[userID], nil
}

func (f *fakeRepo) Ledger(_ context.Context, userID string) ([]repo.LedgerEntry, error) {
	return f.ledger[userID], nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeRepo) {
	t.Helper()
	r := newFakeRepo()
	srv := httptest.NewServer(NewServer(zap.NewNop(), r).Router())
	t.Cleanup(srv.Close)
	return srv, r
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestDepositThenReserve(t *testing.T) {
	srv, _ := newTestServer(t)

	res := post(t, srv.URL+"/wallet/deposit", dto.DepositRequest{UserID: "u1", Amount: 500})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("deposit: http %d", res.StatusCode)
	}
	var wr dto.WalletResponse
	if err := json.NewDecoder(res.Body).Decode(&wr); err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if wr.Balance != 500 {
		t.Fatalf("balance %d, want 500", wr.Balance)
	}

	res = post(t, srv.URL+"/wallet/reserve", dto.ReserveRequest{UserID: "u1", Amount: 100, ExternalRef: "bet-1"})
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reserve: http %d", res.StatusCode)
	}
	var rr dto.ReservationResponse
	if err := json.NewDecoder(res.Body).Decode(&rr); err != nil {
		t.Fatal(err)
	}
	if rr.Status != "PENDING" || rr.ReservationID == "" {
		t.Fatalf("reservation %+v", rr)
	}
}

func TestReserveBeyondBalanceConflicts(t *testing.T) {
	srv, r := newTestServer(t)
	r.balance["u1"] = 50

	res := post(t, srv.URL+"/wallet/reserve", dto.ReserveRequest{UserID: "u1", Amount: 100, ExternalRef: "bet-1"})
	res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("http %d, want 409", res.StatusCode)
	}
	if r.balance["u1"] != 50 {
		t.Errorf("balance %d, want untouched 50", r.balance["u1"])
	}
}

func TestReserveStorageFailureIsNotConflict(t *testing.T) {
	srv, r := newTestServer(t)
	r.balance["u1"] = 500
	r.reserveErr = errors.New("connection refused")

	res := post(t, srv.URL+"/wallet/reserve", dto.ReserveRequest{UserID: "u1", Amount: 100, ExternalRef: "bet-1"})
	res.Body.Close()
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("http %d, want 500: a storage failure must not look like insufficient funds", res.StatusCode)
	}
}

func TestPayoutIsIdempotentPerRef(t *testing.T) {
	srv, r := newTestServer(t)

	for i := 0; i < 2; i++ {
		res := post(t, srv.URL+"/wallet/payout", dto.PayoutRequest{UserID: "u1", Amount: 950, ExternalRef: "bet-1"})
		if res.StatusCode != http.StatusOK {
			t.Fatalf("payout attempt %d: http %d", i, res.StatusCode)
		}
		res.Body.Close()
	}
	if r.balance["u1"] != 950 {
		t.Errorf("balance %d, want 950 after duplicate payout", r.balance["u1"])
	}
}

func TestLedgerListing(t *testing.T) {
	srv, _ := newTestServer(t)

	res := post(t, srv.URL+"/wallet/deposit", dto.DepositRequest{UserID: "u1", Amount: 500})
	res.Body.Close()

	res, err := http.Get(srv.URL + "/wallet/ledger?userId=u1")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("http %d, want 200", res.StatusCode)
	}
	var entries []dto.LedgerEntry
	if err := json.NewDecoder(res.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Operation != "CREDIT" || entries[0].Amount != 500 {
		t.Fatalf("ledger %+v, want one CREDIT of 500", entries)
	}
}

func TestInvalidPayloads(t *testing.T) {
	srv, _ := newTestServer(t)
	cases := []struct {
		path string
		body any
	}{
		{"/wallet/deposit", dto.DepositRequest{UserID: "", Amount: 10}},
		{"/wallet/deposit", dto.DepositRequest{UserID: "u1", Amount: 0}},
		{"/wallet/reserve", dto.ReserveRequest{UserID: "u1", Amount: 10}},
		{"/wallet/payout", dto.PayoutRequest{UserID: "u1", Amount: -1, ExternalRef: "x"}},
		{"/wallet/commit", dto.CommitRequest{UserID: "u1"}},
	}
	for _, tc := range cases {
		res := post(t, srv.URL+tc.path, tc.body)
		res.Body.Close()
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("%s with %+v: http %d, want 400", tc.path, tc.body, res.StatusCode)
		}
	}
}
