package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/course-batch-api/internal/models"
)

type delayedLister interface {
	ListDelayed(ctx context.Context, asOf time.Time) ([]models.DelayedStudent, error)
}

// DelaySweeper periodically counts students still seated after their enrollment ended.
type DelaySweeper struct {
	batches  delayedLister
	metrics  *MetricsService
	logger   *zap.Logger
	schedule string
	now      func() time.Time
	cron     *cron.Cron
}

// NewDelaySweeper constructs a DelaySweeper running on a cron schedule such as "@every 1h".
func NewDelaySweeper(batches delayedLister, metrics *MetricsService, schedule string, logger *zap.Logger) *DelaySweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schedule == "" {
		schedule = "@every 1h"
	}
	return &DelaySweeper{
		batches:  batches,
		metrics:  metrics,
		logger:   logger,
		schedule: schedule,
		now:      time.Now,
	}
}

// Start registers the sweep and starts the scheduler. Overlapping runs are skipped.
func (d *DelaySweeper) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(d.schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := d.Sweep(runCtx); err != nil {
			d.logger.Warn("delayed batch sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule delay sweeper: %w", err)
	}
	d.cron = c
	c.Start()
	d.logger.Info("delay sweeper started", zap.String("schedule", d.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (d *DelaySweeper) Stop() {
	if d.cron == nil {
		return
	}
	<-d.cron.Stop().Done()
}

// Sweep lists delayed students once and publishes the count.
func (d *DelaySweeper) Sweep(ctx context.Context) (int, error) {
	delayed, err := d.batches.ListDelayed(ctx, d.now())
	if err != nil {
		return 0, err
	}
	d.metrics.SetDelayedStudents(len(delayed))
	if len(delayed) > 0 {
		d.logger.Info("students past their end date", zap.Int("count", len(delayed)))
	}
	return len(delayed), nil
}
