package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"parking-facility/internal/logging"
)

type Config struct {
	Mode             string
	Port             string
	Environment      string
	OTelServiceName  string
	OTelEndpoint     string
	CapacityRegular  int
	CapacityElectric int
	CapacityHandicap int
	BaseRate         float64
	OvertimeRate     float64
	MaxParkingHours  float64
	SnapshotSchedule string
	Twilio           TwilioConfig
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Enabled reports whether enough credentials are set to send SMS.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set take precedence over the file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", logging.Err(err))
	}

	return &Config{
		Mode:             envOr("APP_MODE", "cli"),
		Port:             envOr("APP_PORT", "8080"),
		Environment:      envOr("APP_ENV", "development"),
		OTelServiceName:  envOr("OTEL_SERVICE_NAME", "parking-facility"),
		OTelEndpoint:     envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		CapacityRegular:  envOrInt("CAPACITY_REGULAR", 30),
		CapacityElectric: envOrInt("CAPACITY_ELECTRIC", 20),
		CapacityHandicap: envOrInt("CAPACITY_HANDICAPPED", 10),
		BaseRate:         envOrFloat("BASE_RATE", 40),
		OvertimeRate:     envOrFloat("OVERTIME_RATE", 10),
		MaxParkingHours:  envOrFloat("MAX_PARKING_HOURS", 5),
		SnapshotSchedule: envOr("SNAPSHOT_SCHEDULE", "@every 1m"),
		Twilio: TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		},
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
