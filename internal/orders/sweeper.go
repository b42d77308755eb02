package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts standard 5-field cron expressions and descriptors
// such as "@every 1h" or "@daily".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a sweep schedule.
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty schedule")
	}
	return scheduleParser.Parse(spec)
}

// Sweeper runs SweepOverdue on a cron schedule.
type Sweeper struct {
	svc     *Service
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
}

// NewSweeper schedules the overdue sweep. loc decides when "midnight" is.
func NewSweeper(svc *Service, schedule string, loc *time.Location, logger *slog.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	s := &Sweeper{
		svc:     svc,
		cron:    cron.New(cron.WithLocation(loc), cron.WithParser(scheduleParser)),
		logger:  logger,
		timeout: time.Minute,
	}
	s.cron.Schedule(sched, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunOnce(ctx)
	}))
	logger.Info("overdue sweep scheduled", "schedule", schedule, "next", sched.Next(time.Now().In(loc)).Format(time.RFC3339))
	return s, nil
}

// RunOnce sweeps immediately and returns the number of orders marked.
func (s *Sweeper) RunOnce(ctx context.Context) int64 {
	n, err := s.svc.SweepOverdue(ctx)
	if err != nil {
		s.logger.Error("overdue sweep failed", "error", err)
		return 0
	}
	return n
}

// Start runs the scheduler in its own goroutine.
func (s *Sweeper) Start() { s.cron.Start() }

// Stop stops scheduling and waits for a running sweep, or for ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("overdue sweep stopped")
	case <-ctx.Done():
		s.logger.Warn("overdue sweep stop interrupted by context")
	}
}
