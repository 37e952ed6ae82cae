package entities

import (
	"errors"
	"fmt"
)

// Settlement errors
var (
	// ErrResultNotAvailable means the draw result for a slot has not been published yet.
	// Retryable: the scheduler re-dispatches the slot later.
	ErrResultNotAvailable = errors.New("draw result not available")

	// ErrConcurrencyConflict means a conditional write lost a race. The winner already made progress.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrAlreadyCancelled is observed by settlement when cancellation won the race
	ErrAlreadyCancelled = errors.New("wager already cancelled")

	// ErrSlotAlreadySettled is returned when a settlement record already exists for (wager, slot)
	ErrSlotAlreadySettled = errors.New("slot already settled for wager")
)

// Cancellation errors
var (
	ErrNotPending      = errors.New("wager is not pending")
	ErrTooLateToCancel = errors.New("too late to cancel wager")
	ErrAlreadyResolved = errors.New("wager already resolved")
	ErrWagerNotFound   = errors.New("wager not found")
)

// Ledger errors
var (
	ErrDuplicateLedgerEntry = errors.New("ledger entry already recorded")
)

// ConfigurationError reports bad catalog data, or a wager referencing catalog entries
// that do not exist. It blocks settlement for the affected wagers only and must reach
// an operator.
type ConfigurationError struct {
	BetType   string
	Placement string
	Source    string
	TimeSlot  string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.BetType != "" && e.Placement != "":
		return fmt.Sprintf("configuration error (bet type %s, placement %s): %s", e.BetType, e.Placement, e.Reason)
	case e.BetType != "":
		return fmt.Sprintf("configuration error (bet type %s): %s", e.BetType, e.Reason)
	case e.Placement != "":
		return fmt.Sprintf("configuration error (placement %s): %s", e.Placement, e.Reason)
	case e.Source != "" || e.TimeSlot != "":
		return fmt.Sprintf("configuration error (source %s, time slot %s): %s", e.Source, e.TimeSlot, e.Reason)
	default:
		return "configuration error: " + e.Reason
	}
}

// InvalidDigitsError reports a malformed guess or ending that slipped past upstream validation
type InvalidDigitsError struct {
	Value  string
	Reason string
}

func (e *InvalidDigitsError) Error() string {
	return fmt.Sprintf("invalid digits %q: %s", e.Value, e.Reason)
}

// IsCancellationRejection reports whether err is one of the expected, user-facing
// cancellation outcomes rather than an anomaly
func IsCancellationRejection(err error) bool {
	return errors.Is(err, ErrNotPending) ||
		errors.Is(err, ErrTooLateToCancel) ||
		errors.Is(err, ErrAlreadyResolved)
}
