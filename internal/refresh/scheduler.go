// Package refresh drives tables that change on a timer: function
// generated tables and time tables.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// cronLogger routes cron's own logging through slog
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Scheduler runs periodic table jobs. A job whose previous run is still
// in flight skips that tick.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a stopped scheduler
func NewScheduler() *Scheduler {
	logger := cronLogger{logger: slog.Default()}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every registers fn to run once per interval. fn receives a context
// that is cancelled when the scheduler stops.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context)) error {
	if interval <= 0 {
		return fmt.Errorf("schedule %s: interval must be positive, got %s", name, interval)
	}
	_, err := s.cron.AddFunc("@every "+interval.String(), func() {
		fn(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	slog.Debug("job scheduled", "table", name, "interval", interval)
	return nil
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// Jobs returns how many jobs are registered
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}
