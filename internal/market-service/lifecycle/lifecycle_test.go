package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/numdraw/bet-platform/internal/market-service/lifecycle"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    lifecycle.Status
		to      lifecycle.Status
		wantErr bool
	}{
		{"upcoming to open", lifecycle.StatusUpcoming, lifecycle.StatusOpen, false},
		{"open to closed", lifecycle.StatusOpen, lifecycle.StatusClosed, false},
		{"skip upcoming to closed", lifecycle.StatusUpcoming, lifecycle.StatusClosed, true},
		{"reopen closed", lifecycle.StatusClosed, lifecycle.StatusOpen, true},
		{"reverse open to upcoming", lifecycle.StatusOpen, lifecycle.StatusUpcoming, true},
		{"self transition", lifecycle.StatusOpen, lifecycle.StatusOpen, true},
		{"unknown from", lifecycle.Status("cancelled"), lifecycle.StatusOpen, true},
		{"unknown to", lifecycle.StatusOpen, lifecycle.Status("done"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := lifecycle.Transition(tt.from, tt.to)
			if tt.wantErr {
				if !errors.Is(err, lifecycle.ErrIllegalTransition) {
					t.Fatalf("Transition(%s, %s) = %v, want ErrIllegalTransition", tt.from, tt.to, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transition(%s, %s) unexpected error: %v", tt.from, tt.to, err)
			}
		})
	}
}

func TestForceClose(t *testing.T) {
	for _, from := range []lifecycle.Status{lifecycle.StatusUpcoming, lifecycle.StatusOpen, lifecycle.StatusClosed} {
		got, err := lifecycle.ForceClose(from)
		if err != nil {
			t.Fatalf("ForceClose(%s) unexpected error: %v", from, err)
		}
		if got != lifecycle.StatusClosed {
			t.Fatalf("ForceClose(%s) = %s, want closed", from, got)
		}
	}

	if _, err := lifecycle.ForceClose(lifecycle.Status("void")); !errors.Is(err, lifecycle.ErrIllegalTransition) {
		t.Fatalf("ForceClose(void) = %v, want ErrIllegalTransition", err)
	}
}
