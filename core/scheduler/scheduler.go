// Package scheduler runs a pass on a fixed interval and on demand.
//
// Triggers coalesce: any number of Trigger calls made while a pass runs
// result in exactly one extra pass afterwards. RunNow runs a pass on the
// caller's goroutine and is meant for command handlers that report the outcome.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrStopped is returned by RunNow after Stop.
var ErrStopped = errors.New("scheduler stopped")

// RunFunc is one pass.
type RunFunc func(ctx context.Context)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPassTimeout bounds every loop-driven pass.
func WithPassTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.passTimeout = d
	}
}

// Scheduler drives a RunFunc.
type Scheduler struct {
	interval    time.Duration
	passTimeout time.Duration
	run         RunFunc
	trigger     chan struct{}
	logger      *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New creates a scheduler. An interval of zero or less disables the loop.
func New(interval time.Duration, run RunFunc, logger *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		interval: interval,
		run:      run,
		trigger:  make(chan struct{}, 1),
		logger:   logger.Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the interval loop. It does nothing when the interval is
// disabled, the loop already runs or the scheduler was stopped.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.done != nil {
		return
	}
	if s.interval <= 0 {
		s.logger.Info("Periodic marker updates disabled")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(loopCtx, s.done)

	s.logger.Debug("Marker update task started", zap.Duration("interval", s.interval))
}

// Running reports whether the interval loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.trigger:
		}
		if ctx.Err() != nil {
			return
		}
		s.pass(ctx)
	}
}

func (s *Scheduler) pass(ctx context.Context) {
	if s.passTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.passTimeout)
		defer cancel()
	}
	if err := s.safeRun(ctx); err != nil {
		s.logger.Warn("Error updating markers", zap.Error(err))
	}
}

func (s *Scheduler) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pass panicked: %v", r)
		}
	}()
	s.run(ctx)
	return nil
}

// Trigger requests a pass. With the loop running it does not block, and
// requests made during a pass coalesce into one. Without a loop the pass runs
// on the caller's goroutine, bounded by the pass timeout when one is set.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	stopped, looping := s.stopped, s.done != nil
	s.mu.Unlock()

	switch {
	case stopped:
		return
	case looping:
		select {
		case s.trigger <- struct{}{}:
		default:
		}
	default:
		s.pass(context.Background())
	}
}

// RunNow runs a pass on the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context) error {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return ErrStopped
	}
	return s.safeRun(ctx)
}

// Stop ends the loop and waits for it to exit. A pass in flight finishes
// first. No pass starts after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	s.mu.Lock()
	s.done = nil
	s.mu.Unlock()
	s.logger.Debug("Marker update task stopped")
}
