package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// gate blocks the first pass until released.
type gate struct {
	count   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) run(ctx context.Context) {
	if g.count.Add(1) == 1 {
		close(g.entered)
		<-g.release
	}
}

func TestScheduler_DisabledInterval(t *testing.T) {
	var count atomic.Int32
	s := New(0, func(ctx context.Context) { count.Add(1) }, zap.NewNop())
	s.Start(context.Background())

	assert.False(t, s.Running())

	s.Trigger()
	assert.Equal(t, int32(1), count.Load())

	require.NoError(t, s.RunNow(context.Background()))
	assert.Equal(t, int32(2), count.Load())

	s.Stop()
	s.Trigger()
	assert.Equal(t, int32(2), count.Load())
	assert.ErrorIs(t, s.RunNow(context.Background()), ErrStopped)
}

func TestScheduler_SynchronousTriggerUsesPassTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	s := New(0, func(ctx context.Context) {
		deadline, hasDeadline = ctx.Deadline()
	}, zap.NewNop(), WithPassTimeout(time.Minute))

	s.Trigger()

	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestScheduler_IntervalFires(t *testing.T) {
	var count atomic.Int32
	s := New(5*time.Millisecond, func(ctx context.Context) { count.Add(1) }, zap.NewNop())
	s.Start(context.Background())
	defer s.Stop()

	assert.True(t, s.Running())
	assert.Eventually(t, func() bool { return count.Load() >= 3 }, time.Second, time.Millisecond)
}

func TestScheduler_TriggersCoalesce(t *testing.T) {
	g := newGate()
	s := New(time.Hour, g.run, zap.NewNop())
	s.Start(context.Background())
	defer s.Stop()

	s.Trigger()
	<-g.entered

	for i := 0; i < 10; i++ {
		s.Trigger()
	}
	close(g.release)

	assert.Eventually(t, func() bool { return g.count.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), g.count.Load())
}

func TestScheduler_StopWaitsForPass(t *testing.T) {
	g := newGate()
	s := New(time.Hour, g.run, zap.NewNop())
	s.Start(context.Background())

	s.Trigger()
	<-g.entered
	s.Trigger()

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while a pass was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(g.release)
	<-stopped

	assert.False(t, s.Running())
	assert.Equal(t, int32(1), g.count.Load())

	s.Trigger()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), g.count.Load())
	s.Stop()
}

func TestScheduler_PanicDoesNotKillLoop(t *testing.T) {
	var count atomic.Int32
	s := New(time.Hour, func(ctx context.Context) {
		if count.Add(1) == 1 {
			panic("boom")
		}
	}, zap.NewNop())
	s.Start(context.Background())
	defer s.Stop()

	s.Trigger()
	assert.Eventually(t, func() bool { return count.Load() == 1 }, time.Second, time.Millisecond)
	s.Trigger()
	assert.Eventually(t, func() bool { return count.Load() == 2 }, time.Second, time.Millisecond)

	assert.NoError(t, s.RunNow(context.Background()))
}

func TestScheduler_RunNowReportsPanic(t *testing.T) {
	s := New(0, func(ctx context.Context) { panic("boom") }, zap.NewNop())
	err := s.RunNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestScheduler_PassTimeout(t *testing.T) {
	deadline := make(chan bool, 1)
	s := New(0, func(ctx context.Context) {
		_, ok := ctx.Deadline()
		deadline <- ok
	}, zap.NewNop(), WithPassTimeout(time.Minute))

	s.Trigger()
	assert.True(t, <-deadline)
}
