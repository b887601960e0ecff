package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BatchTrigger starts one batch sync
type BatchTrigger interface {
	TriggerAll(ctx context.Context) (*BatchResult, error)
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// Schedule is a standard five-field cron expression
	Schedule string

	// RunTimeout bounds one trigger call
	RunTimeout time.Duration

	// RunOnStart fires one batch immediately after Start
	RunOnStart bool
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Schedule:   "0 */6 * * *",
		RunTimeout: 10 * time.Minute,
	}
}

// CronTrigger fires batch syncs on a cron schedule
type CronTrigger struct {
	config  CronTriggerConfig
	trigger BatchTrigger
	logger  *zap.Logger
	cron    *cron.Cron

	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	isRunning bool
	inFlight  sync.Mutex
}

// NewCronTrigger validates the schedule and creates a trigger
func NewCronTrigger(config CronTriggerConfig, trigger BatchTrigger, logger *zap.Logger) (*CronTrigger, error) {
	if config.RunTimeout <= 0 {
		config.RunTimeout = DefaultCronTriggerConfig().RunTimeout
	}
	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("%w: schedule %q: %v", ErrInvalidConfig, config.Schedule, err)
	}
	return &CronTrigger{
		config:  config,
		trigger: trigger,
		logger:  logger,
		cron:    cron.New(),
	}, nil
}

// Start registers the schedule and starts the cron runner
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	if _, err := c.cron.AddFunc(c.config.Schedule, c.tick); err != nil {
		c.cancel()
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.cron.Start()
	c.isRunning = true

	c.logger.Info("Sync cron trigger started",
		zap.String("schedule", c.config.Schedule),
		zap.Duration("run_timeout", c.config.RunTimeout),
	)

	if c.config.RunOnStart {
		go c.tick()
	}
	return nil
}

// Stop stops scheduling and waits for a running batch or ctx
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	done := c.cron.Stop()
	select {
	case <-done.Done():
		c.cancel()
		c.logger.Info("Sync cron trigger stopped")
		return nil
	case <-ctx.Done():
		c.cancel()
		return ctx.Err()
	}
}

// RunOnce fires a single batch. Overlapping runs are refused.
func (c *CronTrigger) RunOnce(ctx context.Context) (*BatchResult, error) {
	if !c.inFlight.TryLock() {
		return nil, ErrRunInProgress
	}
	defer c.inFlight.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.config.RunTimeout)
	defer cancel()

	start := time.Now()
	result, err := c.trigger.TriggerAll(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Batch sync completed",
		zap.Int("integrations", len(result.Synced)),
		zap.Int("failed", result.Failed()),
		zap.Duration("duration", time.Since(start)),
	)
	for _, item := range result.Synced {
		if item.Error != "" {
			c.logger.Warn("Integration sync failed",
				zap.String("integration_id", item.ID),
				zap.String("error", item.Error),
			)
		}
	}
	return result, nil
}

func (c *CronTrigger) tick() {
	if _, err := c.RunOnce(c.ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			c.logger.Warn("Skipping tick, previous batch still running")
			return
		}
		c.logger.Error("Batch sync trigger failed", zap.Error(err))
	}
}
