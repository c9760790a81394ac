package lifecycle

import (
	"errors"
	"fmt"
)

// Status is the lifecycle vocabulary shared by markets, market games and toss
// games. Transitions are strictly forward: upcoming -> open -> closed.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOpen     Status = "open"
	StatusClosed   Status = "closed"
)

var ErrIllegalTransition = errors.New("illegal status transition")

// forward holds the only caller-initiated transitions the product defines.
// Result declaration closes a market through ForceClose instead.
var forward = map[Status]Status{
	StatusUpcoming: StatusOpen,
	StatusOpen:     StatusClosed,
}

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOpen, StatusClosed:
		return true
	}
	return false
}

// Transition validates a caller-initiated status change. Skips and reversals
// are rejected here, centrally, instead of being trusted to callers.
func Transition(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: unknown status %q -> %q", ErrIllegalTransition, from, to)
	}
	if forward[from] != to {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// ForceClose is the transition used by result declaration: any status may be
// driven to closed, and closing a closed market is a no-op.
func ForceClose(from Status) (Status, error) {
	if !from.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, from)
	}
	return StatusClosed, nil
}
