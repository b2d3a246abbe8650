package worker

import (
	"context"
	"fmt"
	"time"

	"dripmail/utils"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultSchedule runs the drip job once a day at 00:00 UTC.
const DefaultSchedule = "0 0 * * *"

type DripWorker struct {
	Scheduler *DripScheduler
	Schedule  string
	Logger    *logrus.Entry
}

func NewDripWorker(scheduler *DripScheduler, schedule string, logger *logrus.Entry) *DripWorker {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = logrus.WithField("component", "drip_worker")
	}
	return &DripWorker{
		Scheduler: scheduler,
		Schedule:  schedule,
		Logger:    logger,
	}
}

// Start registers the drip job on a UTC cron and blocks until ctx is done.
// A run still in progress when the next tick fires makes that tick a no-op.
func (dw *DripWorker) Start(ctx context.Context) error {
	cronLogger := cron.PrintfLogger(dw.Logger)
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if _, err := c.AddFunc(dw.Schedule, func() { _, _ = dw.RunNow(ctx) }); err != nil {
		return fmt.Errorf("invalid drip schedule %q: %w", dw.Schedule, err)
	}

	c.Start()
	dw.Logger.WithField("schedule", dw.Schedule).Info("Drip worker started")

	<-ctx.Done()
	dw.Logger.Info("Drip worker shutting down...")
	<-c.Stop().Done()
	return nil
}

// RunNow performs one drip run and logs its outcome.
func (dw *DripWorker) RunNow(ctx context.Context) (*RunSummary, error) {
	summary, err := dw.Scheduler.Run(ctx)
	if err != nil {
		fields := map[string]interface{}{"schedule": dw.Schedule}
		if summary != nil {
			fields["run_id"] = summary.RunID
		}
		utils.LogError("drip_run", err, fields)
		return summary, err
	}
	return summary, nil
}
