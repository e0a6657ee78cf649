package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/postr/internal/metrics"
	"github.com/maheshrc27/postr/internal/service"
	"github.com/robfig/cron"
)

const sweepTimeout = 2 * time.Minute

// ScheduleSweepJob re-dispatches due schedules the queue lost and expires stale triggers.
type ScheduleSweepJob struct {
	ss service.ScheduleService
	m  metrics.Metrics
	mu sync.Mutex
}

func NewScheduleSweepJob(ss service.ScheduleService, m metrics.Metrics) *ScheduleSweepJob {
	return &ScheduleSweepJob{
		ss: ss,
		m:  m,
	}
}

func (j *ScheduleSweepJob) Sweep() {
	// overlapping runs would dispatch the same schedules twice
	if !j.mu.TryLock() {
		slog.Info("previous sweep still running, skipping")
		return
	}
	defer j.mu.Unlock()

	obs := j.m.StartSweep()
	defer obs.Finish()

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	enqueued, err := j.ss.EnqueueDue(ctx)
	if err != nil {
		slog.Info(err.Error())
	}
	expired, err := j.ss.ExpireTriggers(ctx)
	if err != nil {
		slog.Info(err.Error())
	}
	if enqueued > 0 || expired > 0 {
		slog.Info("schedule sweep finished", "enqueued", enqueued, "expired", expired)
	}
}

// Start registers the sweep on spec and starts the scheduler. The caller stops it.
func (j *ScheduleSweepJob) Start(spec string) (*cron.Cron, error) {
	c := cron.New()
	if err := c.AddFunc(spec, j.Sweep); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
