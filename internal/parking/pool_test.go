package parking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotPoolFindFreeLowestID(t *testing.T) {
	pool := NewSlotPool(Regular, 3)
	require.Equal(t, 3, pool.Capacity())
	assert.Equal(t, Regular, pool.Category())

	first := pool.FindFree()
	require.NotNil(t, first)
	assert.Equal(t, 1, first.ID)
	require.NoError(t, pool.Occupy(first, Occupancy{TicketID: 1}))

	second := pool.FindFree()
	require.NotNil(t, second)
	assert.Equal(t, 2, second.ID)
	require.NoError(t, pool.Reserve(second, ReservationInfo{ID: 1}))

	third := pool.FindFree()
	require.NotNil(t, third)
	assert.Equal(t, 3, third.ID)
	require.NoError(t, pool.Occupy(third, Occupancy{TicketID: 2}))

	assert.Nil(t, pool.FindFree())

	_, err := pool.Vacate(first)
	require.NoError(t, err)
	_, err = pool.CancelReservation(second)
	require.NoError(t, err)

	again := pool.FindFree()
	require.NotNil(t, again)
	assert.Equal(t, 1, again.ID)
}

func TestSlotPoolCount(t *testing.T) {
	pool := NewSlotPool(Electric, 4)

	slot, err := pool.Slot(2)
	require.NoError(t, err)
	require.NoError(t, pool.Occupy(slot, Occupancy{TicketID: 1}))

	slot, err = pool.Slot(4)
	require.NoError(t, err)
	require.NoError(t, pool.Reserve(slot, ReservationInfo{ID: 1}))

	assert.Equal(t, 2, pool.Count(StatusFree))
	assert.Equal(t, 1, pool.Count(StatusOccupied))
	assert.Equal(t, 1, pool.Count(StatusReserved))
}

func TestSlotPoolSlotOutOfRange(t *testing.T) {
	pool := NewSlotPool(Handicapped, 2)

	_, err := pool.Slot(0)
	assert.Error(t, err)
	_, err = pool.Slot(3)
	assert.Error(t, err)
}

func TestSlotPoolSnapshotIsACopy(t *testing.T) {
	pool := NewSlotPool(Regular, 2)
	snapshot := pool.Snapshot()

	slot, err := pool.Slot(1)
	require.NoError(t, err)
	require.NoError(t, pool.Occupy(slot, Occupancy{TicketID: 9}))

	require.Len(t, snapshot, 2)
	assert.Equal(t, StatusFree, snapshot[0].Status())
	assert.Equal(t, 1, snapshot[0].ID)
	assert.Equal(t, 2, snapshot[1].ID)
}

func TestEmptySlotPool(t *testing.T) {
	pool := NewSlotPool(Electric, 0)
	assert.Nil(t, pool.FindFree())
	assert.Empty(t, pool.Snapshot())
}
