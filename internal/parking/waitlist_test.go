package parking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitlistFIFO(t *testing.T) {
	w := NewWaitlist(Regular)
	now := time.Now()

	_, ok := w.Dequeue()
	assert.False(t, ok)

	for _, plate := range []string{"A", "B", "C"} {
		w.Enqueue(WaitlistEntry{Vehicle: NewVehicle(plate, Regular), EnqueuedAt: now})
	}
	require.Equal(t, 3, w.Len())
	assert.Equal(t, 2, w.Position("B"))
	assert.Equal(t, 0, w.Position("Z"))

	for _, want := range []string{"A", "B", "C"} {
		entry, ok := w.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, entry.Vehicle.LicensePlate)
	}

	assert.Equal(t, 0, w.Len())
	_, ok = w.Dequeue()
	assert.False(t, ok)
}

func TestWaitlistPositionShiftsOnDequeue(t *testing.T) {
	w := NewWaitlist(Electric)
	w.Enqueue(WaitlistEntry{Vehicle: NewVehicle("A", Electric)})
	w.Enqueue(WaitlistEntry{Vehicle: NewVehicle("B", Electric)})

	_, _ = w.Dequeue()
	assert.Equal(t, 1, w.Position("B"))
}
