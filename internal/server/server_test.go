package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"parking-facility/internal/metrics"
	"parking-facility/internal/parking"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Meta    *Meta           `json:"meta"`
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestRouter(t *testing.T, opts ...parking.Option) (http.Handler, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]parking.Option{parking.WithClock(clock)}, opts...)
	facility := parking.NewFacility(opts...)

	telemetry := parking.NewTelemetryProviderFrom("test", sdktrace.NewTracerProvider(), sdkmetric.NewMeterProvider())
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))

	instrumented, err := parking.NewInstrumentedFacility(facility, telemetry, log, nil)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewAvailabilityCollector(facility))

	return NewRouter(NewHandler(instrumented, "test"), registry, "test", log), clock
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, _ := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Service)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestParkAndExit(t *testing.T) {
	h, clock := newTestRouter(t)

	rec, env := do(t, h, http.MethodPost, "/api/facility/park", ParkRequest{LicensePlate: "KA-01", Category: "regular"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, env.Success)
	require.NotNil(t, env.Meta)
	assert.NotEmpty(t, env.Meta.RequestID)

	var ticket TicketResponse
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.Equal(t, int64(1), ticket.TicketID)
	assert.Equal(t, 1, ticket.SlotID)
	assert.Equal(t, "regular", ticket.Category)

	clock.now = clock.now.Add(5*time.Hour + 30*time.Minute)

	rec, env = do(t, h, http.MethodPost, "/api/facility/exit", ExitRequest{TicketID: ticket.TicketID})
	require.Equal(t, http.StatusOK, rec.Code)

	var receipt ReceiptResponse
	require.NoError(t, json.Unmarshal(env.Data, &receipt))
	assert.Equal(t, "success", receipt.Status)
	assert.Equal(t, "KA-01", receipt.LicensePlate)
	assert.InDelta(t, 5.5, receipt.DurationHours, 1e-9)
	assert.InDelta(t, 225.0, receipt.Fee, 1e-9)
	assert.Nil(t, receipt.Promoted)

	rec, env = do(t, h, http.MethodPost, "/api/facility/exit", ExitRequest{TicketID: ticket.TicketID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestParkWaitlistsAndExitPromotes(t *testing.T) {
	h, _ := newTestRouter(t, parking.WithCapacities(map[parking.Category]int{parking.Electric: 1}))

	rec, env := do(t, h, http.MethodPost, "/api/facility/park", ParkRequest{LicensePlate: "EV-1", Category: "electric"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var first TicketResponse
	require.NoError(t, json.Unmarshal(env.Data, &first))

	rec, env = do(t, h, http.MethodPost, "/api/facility/park", ParkRequest{LicensePlate: "EV-2", Category: "electric"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var waiting WaitlistedResponse
	require.NoError(t, json.Unmarshal(env.Data, &waiting))
	assert.Equal(t, "waitlisted", waiting.Status)
	assert.Equal(t, 1, waiting.Position)

	rec, env = do(t, h, http.MethodPost, "/api/facility/exit", ExitRequest{TicketID: first.TicketID})
	require.Equal(t, http.StatusOK, rec.Code)
	var receipt ReceiptResponse
	require.NoError(t, json.Unmarshal(env.Data, &receipt))
	require.NotNil(t, receipt.Promoted)
	assert.Equal(t, "EV-2", receipt.Promoted.LicensePlate)
	assert.Equal(t, first.SlotID, receipt.Promoted.SlotID)

	rec, env = do(t, h, http.MethodGet, "/api/facility/tickets/EV-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found TicketResponse
	require.NoError(t, json.Unmarshal(env.Data, &found))
	assert.Equal(t, receipt.Promoted.TicketID, found.TicketID)
}

func TestParkValidation(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name string
		body any
		code int
	}{
		{"missing plate", ParkRequest{Category: "regular"}, http.StatusBadRequest},
		{"unknown category", ParkRequest{LicensePlate: "X", Category: "truck"}, http.StatusBadRequest},
		{"malformed body", "not an object", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, http.MethodPost, "/api/facility/park", tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestReserveAndCancel(t *testing.T) {
	h, _ := newTestRouter(t, parking.WithCapacities(map[parking.Category]int{parking.Handicapped: 1}))

	rec, env := do(t, h, http.MethodPost, "/api/facility/reservations",
		ReserveRequest{Name: "Ada", Category: "handicapped", Phone: "+15550100"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var reservation ReservationResponse
	require.NoError(t, json.Unmarshal(env.Data, &reservation))
	assert.Equal(t, int64(1), reservation.ReservationID)
	assert.Equal(t, 1, reservation.SlotID)

	rec, _ = do(t, h, http.MethodPost, "/api/facility/reservations",
		ReserveRequest{Name: "Bob", Category: "handicapped", Phone: "+15550101"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/facility/slots/handicapped", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var slots []SlotStatus
	require.NoError(t, json.Unmarshal(env.Data, &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, "reserved", slots[0].Status)
	assert.Equal(t, "Ada", slots[0].HolderName)

	rec, _ = do(t, h, http.MethodDelete, "/api/facility/reservations/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/facility/reservations/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/facility/reservations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailability(t *testing.T) {
	h, _ := newTestRouter(t)

	do(t, h, http.MethodPost, "/api/facility/park", ParkRequest{LicensePlate: "A", Category: "regular"})
	do(t, h, http.MethodPost, "/api/facility/reservations", ReserveRequest{Name: "Ada", Category: "regular", Phone: "1"})

	rec, env := do(t, h, http.MethodGet, "/api/facility/availability", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var availability map[string]AvailabilityResponse
	require.NoError(t, json.Unmarshal(env.Data, &availability))
	assert.Equal(t, AvailabilityResponse{Available: 28, Occupied: 2, Reserved: 1, Total: 30}, availability["regular"])
	assert.Equal(t, AvailabilityResponse{Available: 20, Total: 20}, availability["electric"])
	assert.Equal(t, AvailabilityResponse{Available: 10, Total: 10}, availability["handicapped"])
}

func TestFindTicketNotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, env := do(t, h, http.MethodGet, "/api/facility/tickets/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)

	do(t, h, http.MethodPost, "/api/facility/park", ParkRequest{LicensePlate: "A", Category: "electric"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `parking_slots_available{category="electric"} 19`)
	assert.Contains(t, rec.Body.String(), `parking_slots_total{category="regular"} 30`)
}

func TestRecoveryMiddleware(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	h := RequestIDMiddleware(RecoveryMiddleware(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, _ := do(t, h, http.MethodOptions, "/api/facility/park", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggingMiddlewareKeepsResponseController(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	var flushErr error
	h := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flushErr = http.NewResponseController(w).Flush()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, flushErr)
	assert.True(t, rec.Flushed)
}
