package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	os.Clearenv()
	cfg := Load()

	assert.Equal(t, "cli", cfg.Mode)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "parking-facility", cfg.OTelServiceName)
	assert.Equal(t, "http://localhost:4318", cfg.OTelEndpoint)
	assert.Equal(t, 30, cfg.CapacityRegular)
	assert.Equal(t, 20, cfg.CapacityElectric)
	assert.Equal(t, 10, cfg.CapacityHandicap)
	assert.InDelta(t, 40, cfg.BaseRate, 0.001)
	assert.InDelta(t, 10, cfg.OvertimeRate, 0.001)
	assert.InDelta(t, 5, cfg.MaxParkingHours, 0.001)
	assert.Equal(t, "@every 1m", cfg.SnapshotSchedule)
	assert.False(t, cfg.Twilio.Enabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_MODE", "server")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CAPACITY_REGULAR", "3")
	t.Setenv("BASE_RATE", "12.5")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("TWILIO_FROM_NUMBER", "+15550000000")

	cfg := Load()

	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3, cfg.CapacityRegular)
	assert.InDelta(t, 12.5, cfg.BaseRate, 0.001)
	assert.True(t, cfg.Twilio.Enabled())
}

func TestInvalidNumericFallsBackToDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CAPACITY_ELECTRIC", "lots")
	t.Setenv("OVERTIME_RATE", "abc")

	cfg := Load()

	assert.Equal(t, 20, cfg.CapacityElectric)
	assert.InDelta(t, 10, cfg.OvertimeRate, 0.001)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CAPACITY_HANDICAPPED=4\n"), 0o600))
	t.Chdir(dir)
	os.Unsetenv("CAPACITY_HANDICAPPED")
	t.Cleanup(func() { os.Unsetenv("CAPACITY_HANDICAPPED") })

	cfg := Load()

	assert.Equal(t, 4, cfg.CapacityHandicap)
}
