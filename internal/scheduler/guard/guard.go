package guard

import (
	"errors"
	"time"
)

var (
	ErrNotDue       = errors.New("digest_not_due")
	ErrMissedWindow = errors.New("digest_missed_window")
)

// EnsureDue fails until now reaches the scheduled slot.
func EnsureDue(scheduled, now time.Time) error {
	if scheduled.IsZero() || now.Before(scheduled) {
		return ErrNotDue
	}
	return nil
}

// EnsureWithinGrace rejects a slot that is already more than grace old. A
// non-positive grace accepts any late run.
func EnsureWithinGrace(scheduled, now time.Time, grace time.Duration) error {
	if err := EnsureDue(scheduled, now); err != nil {
		return err
	}
	if grace > 0 && now.Sub(scheduled) > grace {
		return ErrMissedWindow
	}
	return nil
}
