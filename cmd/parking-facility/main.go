package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parking-facility/internal/config"
	"parking-facility/internal/jobs"
	"parking-facility/internal/logging"
	"parking-facility/internal/notify"
	"parking-facility/internal/parking"
	"parking-facility/internal/server"
)

var (
	mode = flag.String("mode", "", "Mode to run: cli, server, or both (overrides APP_MODE)")
	port = flag.String("port", "", "Port for HTTP server (overrides APP_PORT)")
)

type app struct {
	cfg       *config.Config
	log       *slog.Logger
	telemetry *parking.TelemetryProvider
	facility  *parking.InstrumentedFacility
	scheduler *jobs.Scheduler
	sms       *notify.SMSNotifier
}

func main() {
	flag.Parse()

	cfg := config.Load()
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *port != "" {
		cfg.Port = *port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryProvider, err := parking.NewTelemetryProvider(ctx, cfg.OTelServiceName, cfg.OTelEndpoint)
	if err != nil {
		slog.Error("failed to initialize telemetry", logging.Err(err))
		os.Exit(1)
	}

	// the logger forwards to the global OTel log provider, so it comes second
	log := logging.Init(cfg.OTelServiceName, cfg.Environment)

	a, err := newApp(cfg, log, telemetryProvider)
	if err != nil {
		log.Error("failed to initialize facility", logging.Err(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	a.scheduler.Start()

	switch cfg.Mode {
	case "cli":
		a.runCLI(ctx, cancel, sigChan)
	case "server":
		a.runServer(ctx, cancel, sigChan)
	case "both":
		a.runBoth(ctx, cancel, sigChan)
	default:
		log.Error("invalid mode, must be cli, server, or both", slog.String("mode", cfg.Mode))
		a.shutdown()
		os.Exit(1)
	}

	a.shutdown()
}

func newApp(cfg *config.Config, log *slog.Logger, telemetryProvider *parking.TelemetryProvider) (*app, error) {
	facility := parking.NewFacility(
		parking.WithCapacities(map[parking.Category]int{
			parking.Regular:     cfg.CapacityRegular,
			parking.Electric:    cfg.CapacityElectric,
			parking.Handicapped: cfg.CapacityHandicap,
		}),
		parking.WithRates(parking.Rates{
			Base:     cfg.BaseRate,
			Overtime: cfg.OvertimeRate,
			MaxHours: cfg.MaxParkingHours,
		}),
	)

	a := &app{
		cfg:       cfg,
		log:       log,
		telemetry: telemetryProvider,
	}

	var notifier parking.ReservationNotifier
	if cfg.Twilio.Enabled() {
		a.sms = notify.NewTwilioNotifier(log, cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
		notifier = a.sms
	} else {
		log.Info("twilio credentials not set, reservation notices are only logged")
		notifier = notify.NewLogNotifier(log)
	}

	instrumented, err := parking.NewInstrumentedFacility(facility, telemetryProvider, log, notifier)
	if err != nil {
		return nil, err
	}
	a.facility = instrumented

	a.scheduler = jobs.NewScheduler(log, facility)
	if cfg.SnapshotSchedule != "" {
		if err := a.scheduler.ScheduleSnapshot(cfg.SnapshotSchedule); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *app) runCLI(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal) {
	go func() {
		<-sigChan
		a.log.Info("shutting down")
		cancel()
	}()

	shell := parking.NewShell(a.facility, a.telemetry, os.Stdin, os.Stdout)
	shell.Run(ctx)
}

func (a *app) runServer(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal) {
	srv := server.NewServer(a.cfg.Port, a.facility, a.cfg.OTelServiceName, a.log)

	go func() {
		<-sigChan
		a.log.Info("received shutdown signal")
		a.shutdownServer(srv)
		cancel()
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Error("server error", logging.Err(err))
	}
}

func (a *app) runBoth(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal) {
	srv := server.NewServer(a.cfg.Port, a.facility, a.cfg.OTelServiceName, a.log)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	cliDone := make(chan struct{})
	go func() {
		parking.NewShell(a.facility, a.telemetry, os.Stdin, os.Stdout).Run(ctx)
		close(cliDone)
	}()

	go func() {
		<-sigChan
		a.log.Info("received shutdown signal")
		cancel()
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server error", logging.Err(err))
		}
	case <-cliDone:
		a.log.Info("CLI exited")
	case <-ctx.Done():
		a.log.Info("context cancelled")
	}

	a.shutdownServer(srv)
}

func (a *app) shutdownServer(srv *server.Server) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server shutdown error", logging.Err(err))
	}
}

func (a *app) shutdown() {
	a.log.Info("shutting down telemetry")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	a.scheduler.Stop(shutdownCtx)
	if a.sms != nil {
		a.sms.Wait()
	}

	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		a.log.Error("error shutting down telemetry", logging.Err(err))
	}
}
