package framework

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is used when Periodic.Interval is not set.
const DefaultInterval = time.Second

// Periodic runs a task on every tick of an interval, starting
// immediately. A failed task is logged and retried on the next tick.
type Periodic struct {
	Interval time.Duration
	Task     func(context.Context) error
	// MaxFailures stops Run with the last error after that many
	// consecutive failures. 0 means never.
	MaxFailures int

	wakeUpCh chan struct{}
}

// NewPeriodic creates a Periodic.
func NewPeriodic(interval time.Duration, task func(context.Context) error) *Periodic {
	return &Periodic{Interval: interval, Task: task, wakeUpCh: make(chan struct{}, 1)}
}

// TriggerNext schedules a run of the task right after the current one.
func (p *Periodic) TriggerNext() {
	select {
	case p.wakeUpCh <- struct{}{}:
	default:
	}
}

// Run implements Runnable.
func (p *Periodic) Run(ctx context.Context) error {
	if p.wakeUpCh == nil {
		p.wakeUpCh = make(chan struct{}, 1)
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var failures int
	for {
		if err := p.Task(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			glog.Warningf("periodic task failed (%d): %v", failures, err)
			if p.MaxFailures > 0 && failures >= p.MaxFailures {
				return err
			}
		} else {
			failures = 0
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-p.wakeUpCh:
		}
	}
}
