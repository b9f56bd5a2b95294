package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the reminder job on a cron schedule with a seconds field
type Scheduler struct {
	cron     *cron.Cron
	notifier *Notifier
	log      *slog.Logger
}

// NewScheduler registers the reminder job under spec, e.g. "0 0 12 * * *"
func NewScheduler(n *Notifier, spec string, loc *time.Location, log *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		notifier: n,
		log:      log,
	}

	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.notifier.RemindExpiring(ctx); err != nil {
		s.log.Error("remind expiring premium", "error", err)
	}
}

// Start runs the scheduler until ctx is done, then waits for a running job
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.log.Info("reminder scheduler started", "next_run", s.cron.Entries()[0].Next)

	<-ctx.Done()
	<-s.cron.Stop().Done()
}
