package processes

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/adminui/sysdash/internal/metrics"
)

// DefaultRefreshInterval is used by Toggle and by Start with a non-positive
// interval.
const DefaultRefreshInterval = 5 * time.Second

// Scheduler fires a trigger periodically while running. Each firing runs on
// its own goroutine so a slow fetch never delays the next tick. Stopping
// prevents future firings but leaves dispatched ones alone.
type Scheduler struct {
	clock           clockwork.Clock
	trigger         func(context.Context)
	defaultInterval time.Duration
	baseCtx         context.Context
	logger          *zap.Logger
	metrics         *metrics.PollMetrics

	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithDefaultInterval overrides DefaultRefreshInterval.
func WithDefaultInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.defaultInterval = d
		}
	}
}

// WithTriggerContext sets the context passed to every trigger. Stop never
// cancels it.
func WithTriggerContext(ctx context.Context) SchedulerOption {
	return func(s *Scheduler) { s.baseCtx = ctx }
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l *zap.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// WithSchedulerMetrics reports the running state on m.
func WithSchedulerMetrics(m *metrics.PollMetrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(clock clockwork.Clock, trigger func(context.Context), opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:           clock,
		trigger:         trigger,
		defaultInterval: DefaultRefreshInterval,
		baseCtx:         context.Background(),
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins firing every interval. It is a no-op while already running.
func (s *Scheduler) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	if interval <= 0 {
		interval = s.defaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	ticker := s.clock.NewTicker(interval)
	done := make(chan struct{})
	s.interval = interval
	s.cancel = cancel
	s.done = done

	go s.loop(ctx, ticker, done)

	s.metrics.SetSchedulerRunning(true)
	s.logger.Info("auto-refresh started", zap.Duration("interval", interval))
}

func (s *Scheduler) loop(ctx context.Context, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			go s.trigger(s.baseCtx)
		}
	}
}

// Stop halts the ticker and waits for the loop to exit. Triggers already
// dispatched keep running. No-op when stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	<-done
	s.metrics.SetSchedulerRunning(false)
	s.logger.Info("auto-refresh stopped")
}

// Toggle starts the scheduler at the default interval or stops it, and
// returns the new running state.
func (s *Scheduler) Toggle() bool {
	if s.Running() {
		s.Stop()
		return false
	}
	s.Start(s.defaultInterval)
	return true
}

// Running reports whether a ticker is live.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Interval returns the interval of the live ticker, or the default when
// stopped.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return s.defaultInterval
	}
	return s.interval
}
