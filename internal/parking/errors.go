package parking

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCategory        = errors.New("invalid category")
	ErrInvalidTicket          = errors.New("invalid ticket")
	ErrInvalidDuration        = errors.New("exit time precedes entry time")
	ErrIllegalStateTransition = errors.New("illegal slot state transition")
)

// TransitionError reports a slot asked to change state from the wrong status.
// It signals a bug in the caller, never a capacity or input problem.
type TransitionError struct {
	Op       string
	Category Category
	SlotID   int
	From     SlotStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s slot %d is %s", e.Op, e.Category, e.SlotID, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalStateTransition
}
