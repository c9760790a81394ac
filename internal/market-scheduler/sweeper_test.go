package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeRepo struct {
	toOpen  []string
	toClose []string
}

func (f *fakeRepo) DueToOpen(context.Context, time.Time) ([]string, error)  { return f.toOpen, nil }
func (f *fakeRepo) DueToClose(context.Context, time.Time) ([]string, error) { return f.toClose, nil }

type fakeClient struct {
	calls map[string]string
	fail  map[string]bool
}

func (f *fakeClient) SetStatus(_ context.Context, marketID, status string) error {
	if f.fail[marketID] {
		return errors.New("boom")
	}
	if f.calls == nil {
		f.calls = map[string]string{}
	}
	f.calls[marketID] = status
	return nil
}

func TestSweepFlipsDueMarkets(t *testing.T) {
	client := &fakeClient{}
	s := &Sweeper{
		Log:    zap.NewNop(),
		Repo:   &fakeRepo{toOpen: []string{"m1", "m2"}, toClose: []string{"m3"}},
		Market: client,
	}

	s.Sweep(context.Background())

	want := map[string]string{"m1": "open", "m2": "open", "m3": "closed"}
	for id, status := range want {
		if client.calls[id] != status {
			t.Errorf("market %s flipped to %q, want %q", id, client.calls[id], status)
		}
	}
}

func TestSweepContinuesPastFailures(t *testing.T) {
	client := &fakeClient{fail: map[string]bool{"m1": true}}
	s := &Sweeper{
		Log:    zap.NewNop(),
		Repo:   &fakeRepo{toOpen: []string{"m1", "m2"}},
		Market: client,
	}

	s.Sweep(context.Background())

	if client.calls["m2"] != "open" {
		t.Error("sweep must continue after a failed flip")
	}
}
