package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"FxBias/internal/domain/models"
	xlogger "FxBias/pkg/logger"
)

// Launcher starts an analysis run over the given currencies, all when empty.
type Launcher interface {
	Launch(ctx context.Context, currencies []string) (*models.LaunchResult, error)
}

// Scheduler launches the daily analysis on a standard five-field cron
// expression evaluated in UTC.
type Scheduler struct {
	cron     *cron.Cron
	launcher Launcher
	l        *xlogger.Logger
}

func New(launcher Launcher, l *xlogger.Logger) *Scheduler {
	if l == nil {
		l = xlogger.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		launcher: launcher,
		l:        l.With(xlogger.String("component", "scheduler")),
	}
}

// Schedule registers the analysis launch. Examples: "0 6 * * *", "@daily".
func (s *Scheduler) Schedule(spec string, currencies []string) error {
	_, err := s.cron.AddFunc(spec, func() { s.fire(currencies) })
	if err != nil {
		return err
	}
	s.l.Info("analysis scheduled", xlogger.String("schedule", spec))
	return nil
}

func (s *Scheduler) fire(currencies []string) {
	res, err := s.launcher.Launch(context.Background(), currencies)
	var conflict *models.JobConflictError
	switch {
	case errors.As(err, &conflict):
		s.l.Info("scheduled run skipped, job already running", xlogger.Any("started_at", conflict.StartedAt))
	case err != nil:
		s.l.Error("scheduled run failed to launch", xlogger.Error(err))
	default:
		s.l.Info("scheduled run launched", xlogger.String("run_id", res.RunID))
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started")
}

// Stop stops firing new runs. Runs already launched are owned by the job controller.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.l.Info("scheduler stopped")
}
