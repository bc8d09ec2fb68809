package processes

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/adminui/sysdash/internal/metrics"
)

func TestSchedulerFiresOnEachTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32
	s := NewScheduler(clock, func(context.Context) { fired.Add(1) })

	s.Start(5 * time.Second)
	defer s.Stop()
	assert.True(t, s.Running())
	assert.Equal(t, 5*time.Second, s.Interval())

	clock.Advance(5 * time.Second)
	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)

	clock.Advance(5 * time.Second)
	assert.Eventually(t, func() bool { return fired.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerStopLeavesNoTrigger(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32
	s := NewScheduler(clock, func(context.Context) { fired.Add(1) })

	s.Start(5 * time.Second)
	s.Stop()
	assert.False(t, s.Running())

	clock.Advance(time.Minute)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var fired atomic.Int32
	s := NewScheduler(clock, func(context.Context) { fired.Add(1) })

	s.Start(5 * time.Second)
	s.Start(time.Second)
	defer s.Stop()
	assert.Equal(t, 5*time.Second, s.Interval(), "second Start must not replace the ticker")

	clock.Advance(5 * time.Second)
	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return fired.Load() > 1 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestSchedulerStopWhenStopped(t *testing.T) {
	s := NewScheduler(clockwork.NewFakeClock(), func(context.Context) {})
	assert.NotPanics(t, func() {
		s.Stop()
		s.Stop()
	})
}

func TestSchedulerToggle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPollMetrics(reg)
	s := NewScheduler(clockwork.NewFakeClock(), func(context.Context) {},
		WithDefaultInterval(2*time.Second), WithSchedulerMetrics(m))

	assert.True(t, s.Toggle())
	assert.Equal(t, 2*time.Second, s.Interval())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SchedulerRunning))

	assert.False(t, s.Toggle())
	assert.False(t, s.Running())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SchedulerRunning))
}

func TestSchedulerSlowTriggerDoesNotBlockTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	release := make(chan struct{})
	var started atomic.Int32
	s := NewScheduler(clock, func(context.Context) {
		started.Add(1)
		<-release
	})
	s.Start(time.Second)

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return started.Load() == 1 }, time.Second, 5*time.Millisecond)
	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return started.Load() == 2 }, time.Second, 5*time.Millisecond)

	// Stop returns while triggers are still running.
	s.Stop()
	close(release)
}

func TestSchedulerTriggerContextSurvivesStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctxs := make(chan context.Context, 1)
	s := NewScheduler(clock, func(ctx context.Context) { ctxs <- ctx })
	s.Start(time.Second)
	clock.Advance(time.Second)

	var got context.Context
	assert.Eventually(t, func() bool {
		select {
		case got = <-ctxs:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.NoError(t, got.Err())
}
