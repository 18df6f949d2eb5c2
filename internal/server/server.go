package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parking-facility/internal/metrics"
	"parking-facility/internal/parking"
)

type Server struct {
	httpServer *http.Server
	handler    *Handler
	log        *slog.Logger
}

func NewServer(port string, facility *parking.InstrumentedFacility, serviceName string, log *slog.Logger) *Server {
	handler := NewHandler(facility, serviceName)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewAvailabilityCollector(facility.Facility),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + port,
			Handler:      NewRouter(handler, registry, serviceName, log),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		handler: handler,
		log:     log,
	}
}

func NewRouter(handler *Handler, gatherer prometheus.Gatherer, serviceName string, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(OTelHTTP(serviceName))
	r.Use(LoggingMiddleware(log))
	r.Use(RecoveryMiddleware(log))
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/facility", func(r chi.Router) {
		r.Post("/park", handler.Park)
		r.Post("/exit", handler.Exit)
		r.Post("/reservations", handler.Reserve)
		r.Delete("/reservations/{id}", handler.CancelReservation)
		r.Get("/availability", handler.Availability)
		r.Get("/slots/{category}", handler.Slots)
		r.Get("/tickets/{plate}", handler.FindTicket)
	})

	return r
}

func (s *Server) Start() error {
	s.log.Info("starting HTTP server", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
