package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"parking-facility/internal/logging"
	"parking-facility/internal/metrics"
	"parking-facility/internal/parking"
)

// Scheduler runs the periodic facility jobs.
type Scheduler struct {
	cron   *cron.Cron
	log    *slog.Logger
	source metrics.AvailabilitySource
}

func NewScheduler(log *slog.Logger, source metrics.AvailabilitySource) *Scheduler {
	logger := cronLogger{log: log}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger))),
		log:    log,
		source: source,
	}
}

// ScheduleSnapshot logs an availability snapshot on the given cron spec,
// e.g. "@every 1m" or "*/5 * * * *".
func (s *Scheduler) ScheduleSnapshot(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.LogSnapshot); err != nil {
		return fmt.Errorf("jobs: schedule snapshot %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) LogSnapshot() {
	availability := s.source.Availability()
	for _, c := range parking.Categories {
		a := availability[c]
		s.log.Info("availability snapshot",
			slog.String("category", c.String()),
			slog.Int("available", a.Available),
			slog.Int("occupied", a.Occupied),
			slog.Int("reserved", a.Reserved),
			slog.Int("total", a.Total),
			slog.Int("waitlist", a.Waitlist),
		)
	}
}

func (s *Scheduler) Start() {
	s.log.Info("job scheduler started", slog.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, logging.Err(err))...)
}
