package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/linemark/internal/logger"
)

// Task is the deferred work.
type Task func(ctx context.Context) error

type flushRequest struct {
	ctx  context.Context
	done chan error
}

// Debouncer runs a task once a quiet period has elapsed since the last
// Trigger. Flush bypasses the delay, runs the task and waits for it.
// Runs never overlap.
type Debouncer struct {
	name    string
	task    Task
	logger  logger.Logger
	delay   atomic.Int64
	pending atomic.Bool

	trigger chan struct{}
	flushCh chan flushRequest
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu      sync.Mutex // guards started, stopped
	started bool
	stopped bool
	runMu   sync.Mutex
}

// NewDebouncer creates a debouncer. Until Start is called, Flush runs the
// task inline and Trigger only records that work is pending.
func NewDebouncer(name string, delay time.Duration, task Task, log logger.Logger) *Debouncer {
	d := &Debouncer{
		name:    name,
		task:    task,
		logger:  log,
		trigger: make(chan struct{}, 1),
		flushCh: make(chan flushRequest),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	d.SetDelay(delay)
	return d
}

// SetDelay changes the quiet period used by the next Trigger.
func (d *Debouncer) SetDelay(delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	d.delay.Store(int64(delay))
}

// Pending reports whether a triggered run has not happened yet.
func (d *Debouncer) Pending() bool { return d.pending.Load() }

// Start launches the loop. Calling it twice, or after Stop, is a no-op.
func (d *Debouncer) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true
	go d.loop(ctx)
}

// Trigger (re)arms the delay. It never blocks.
func (d *Debouncer) Trigger() {
	d.pending.Store(true)
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

// Flush cancels the pending delay, runs the task now and returns its error.
func (d *Debouncer) Flush(ctx context.Context) error {
	if !d.isRunning() {
		return d.run(ctx)
	}
	req := flushRequest{ctx: ctx, done: make(chan error, 1)}
	select {
	case d.flushCh <- req:
	case <-d.doneCh:
		// loop exited in between
		return d.run(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop ends the loop and waits for it to exit. A pending run is dropped;
// call Flush first to keep it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	started := d.started
	d.mu.Unlock()

	close(d.stopCh)
	if started {
		<-d.doneCh
	}
}

func (d *Debouncer) isRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started && !d.stopped
}

func (d *Debouncer) loop(ctx context.Context) {
	defer close(d.doneCh)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-d.trigger:
			timer.Stop()
			timer.Reset(time.Duration(d.delay.Load()))
			fire = timer.C
		case <-fire:
			fire = nil
			if err := d.run(ctx); err != nil {
				d.logger.Error("debounced task failed",
					logger.String("task", d.name),
					logger.Error(err))
			}
		case req := <-d.flushCh:
			timer.Stop()
			fire = nil
			req.done <- d.run(req.ctx)
		case <-d.stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (d *Debouncer) run(ctx context.Context) error {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.pending.Store(false)
	return d.task(ctx)
}
