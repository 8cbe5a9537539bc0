package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/linemark/internal/logger"
)

// Periodic runs a task on a fixed interval and on manual triggers.
// A zero interval disables the ticker; manual triggers still work.
type Periodic struct {
	name          string
	task          Task
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewPeriodic creates a periodic job. manualTrigger may be nil.
func NewPeriodic(
	name string,
	interval time.Duration,
	task Task,
	log logger.Logger,
	manualTrigger chan struct{},
) *Periodic {
	if manualTrigger == nil {
		manualTrigger = make(chan struct{}, 1)
	}
	return &Periodic{
		name:          name,
		task:          task,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Trigger asks for an out-of-schedule run without blocking.
func (p *Periodic) Trigger() {
	select {
	case p.manualTrigger <- struct{}{}:
	default:
		// run already requested
	}
}

// Start begins the periodic process
func (p *Periodic) Start(ctx context.Context) {
	var tick <-chan time.Time
	var ticker *time.Ticker
	if p.interval > 0 {
		ticker = time.NewTicker(p.interval)
		tick = ticker.C
	}

	go func() {
		if ticker != nil {
			defer ticker.Stop()
		}
		for {
			select {
			case <-tick:
				p.runOnce(ctx)
			case <-p.manualTrigger:
				p.logger.Info("manual run triggered", logger.String("task", p.name))
				p.runOnce(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the job
func (p *Periodic) Stop() {
	close(p.stopCh)
}

func (p *Periodic) runOnce(ctx context.Context) {
	if err := p.task(ctx); err != nil {
		p.logger.Error("periodic task failed",
			logger.String("task", p.name),
			logger.Error(err))
	}
}
