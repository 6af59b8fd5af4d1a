package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"

	"taf-timeline/internal/services/updater"
	"taf-timeline/pkg/logger"
)

// runTimeout bounds one scheduled sync.
const runTimeout = 5 * time.Minute

type Syncer interface {
	Sync(ctx context.Context) (updater.Result, error)
}

// Scheduler triggers a sync every interval. Overlapping ticks are skipped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	syncer    Syncer
	interval  time.Duration
	l         *logger.Logger
}

func New(syncer Syncer, interval time.Duration, l *logger.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		syncer:    syncer,
		interval:  interval,
		l:         l,
	}
}

// Start schedules the job, the first run happening immediately. A zero
// interval disables scheduling.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.l.Info("scheduler disabled, no sync interval configured")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.run)
	if err != nil {
		return errors.Wrap(err, "failed to schedule sync")
	}

	s.scheduler.StartAsync()
	s.l.Info("scheduler started", map[string]any{"interval": s.interval.String()})
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	res, err := s.syncer.Sync(ctx)
	switch {
	case errors.Is(err, updater.ErrSyncInProgress):
		s.l.Info("scheduled sync skipped, another sync is running")
	case err != nil:
		s.l.Warning("scheduled sync failed", map[string]any{"run_id": res.RunID, "status": res.Status, "err": err.Error()})
	default:
		s.l.Info("scheduled sync done", map[string]any{"run_id": res.RunID, "status": res.Status})
	}
}

func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
