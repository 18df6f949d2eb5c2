package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-facility/internal/parking"
)

func TestLogSnapshot(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	facility := parking.NewFacility()
	_, err := facility.Park("AAA111", "electric")
	require.NoError(t, err)

	s := NewScheduler(log, facility)
	s.LogSnapshot()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(parking.Categories))

	var electric map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &electric))
	assert.Equal(t, "availability snapshot", electric["msg"])
	assert.Equal(t, "electric", electric["category"])
	assert.EqualValues(t, 19, electric["available"])
	assert.EqualValues(t, 1, electric["occupied"])
	assert.EqualValues(t, 20, electric["total"])
}

func TestScheduleSnapshotRejectsBadSpec(t *testing.T) {
	s := NewScheduler(slog.Default(), parking.NewFacility())

	assert.Error(t, s.ScheduleSnapshot("every minute please"))
	assert.NoError(t, s.ScheduleSnapshot("@every 1h"))
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(slog.Default(), parking.NewFacility())
	require.NoError(t, s.ScheduleSnapshot("@every 1h"))

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.NoError(t, ctx.Err())
}
