package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	applog "kioskpos/internal/log"
)

// Job is a named background task on a cron schedule. An empty schedule
// disables the job.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Start registers the enabled jobs and starts the cron runner. Callers stop
// it with (*cron.Cron).Stop on shutdown.
func Start(jobs ...Job) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	for _, j := range jobs {
		if j.Schedule == "" {
			applog.Info(nil, "cron.job.disabled", map[string]any{"job": j.Name})
			continue
		}
		if _, err := c.AddFunc(j.Schedule, wrap(j)); err != nil {
			return nil, fmt.Errorf("register job %s: %w", j.Name, err)
		}
		applog.Info(nil, "cron.job.registered", map[string]any{"job": j.Name, "schedule": j.Schedule})
	}
	c.Start()
	return c, nil
}

func wrap(j Job) func() {
	return func() {
		start := time.Now()
		if err := j.Run(context.Background()); err != nil {
			applog.Error(nil, "cron.job.fail", err, map[string]any{"job": j.Name})
			return
		}
		applog.Info(nil, "cron.job.done", map[string]any{"job": j.Name, "ms": time.Since(start).Milliseconds()})
	}
}

// CatalogRefresh keeps the shared catalog snapshot warm.
func CatalogRefresh(schedule string, refresh func(ctx context.Context) error) Job {
	return Job{Name: "catalog.refresh", Schedule: schedule, Run: refresh}
}

type purger interface {
	PurgeIdle(before time.Time) (int64, error)
}

// SessionPurge deletes kiosk sessions idle for longer than idle.
func SessionPurge(schedule string, p purger, idle time.Duration) Job {
	return Job{
		Name:     "sessions.purge",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			n, err := p.PurgeIdle(time.Now().Add(-idle))
			if err != nil {
				return err
			}
			if n > 0 {
				applog.Info(nil, "sessions.purged", map[string]any{"count": n})
			}
			return nil
		},
	}
}
