package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the reminder job on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	reminder *Reminder
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler registers the reminder under the standard five-field cron
// spec, evaluated in loc.
func NewScheduler(spec string, loc *time.Location, reminder *Reminder, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		reminder: reminder,
		logger:   logger,
		now:      time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.reminder.Run(ctx, s.now()); err != nil {
		s.logger.Error("Reminder run failed", "error", err)
	}
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Reminder scheduler started", "next", s.Next())
}

// Stop halts the scheduler and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Next returns the next scheduled run, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
