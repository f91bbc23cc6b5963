package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnsureWithinGrace(t *testing.T) {
	slot := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, EnsureDue(time.Time{}, slot), ErrNotDue)
	assert.ErrorIs(t, EnsureDue(slot, slot.Add(-time.Second)), ErrNotDue)
	assert.NoError(t, EnsureDue(slot, slot))

	assert.NoError(t, EnsureWithinGrace(slot, slot.Add(59*time.Minute), time.Hour))
	assert.ErrorIs(t, EnsureWithinGrace(slot, slot.Add(61*time.Minute), time.Hour), ErrMissedWindow)
	assert.NoError(t, EnsureWithinGrace(slot, slot.Add(48*time.Hour), 0))
}
