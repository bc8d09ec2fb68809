// Package processes keeps the process list state: filters, the last applied
// snapshot, detail lookups and periodic refresh.
package processes

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/adminui/sysdash/internal/client"
	"github.com/adminui/sysdash/internal/metrics"
)

// ErrNotFound is returned by Detail for a pid that is not in the snapshot.
var ErrNotFound = errors.New("process not found")

// Fetcher loads one process snapshot. *client.Dispatcher satisfies it.
type Fetcher interface {
	ListProcesses(ctx context.Context, q client.ProcessQuery) (*client.ProcessSnapshot, error)
}

// statusTTL is how long a status message stays visible.
const statusTTL = 3 * time.Second

// StatusKind classifies the status line.
type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusInfo
	StatusOK
	StatusError
)

// Status is a transient message about the last action.
type Status struct {
	Kind    StatusKind
	Message string
	At      time.Time
}

// Expired reports whether the message should no longer be shown at now.
func (s Status) Expired(now time.Time) bool {
	return s.Kind == StatusNone || now.Sub(s.At) >= statusTTL
}

// Stats summarises the applied snapshot.
type Stats struct {
	Total    int
	Running  int
	Sleeping int
	Other    int
	CPUSum   float64
	MemSum   float64
}

func computeStats(procs []client.ProcessRecord) Stats {
	s := Stats{Total: len(procs)}
	for _, p := range procs {
		switch firstByte(p.State) {
		case 'R':
			s.Running++
		case 'S', 'I', 'D':
			s.Sleeping++
		default:
			s.Other++
		}
		s.CPUSum += p.CPUPercent
		s.MemSum += p.MemoryPercent
	}
	return s
}

// firstByte accepts both ps-style codes ("Ss+") and words ("running").
func firstByte(state string) byte {
	if state == "" {
		return 0
	}
	switch state {
	case "running":
		return 'R'
	case "sleeping", "idle", "disk-sleep":
		return 'S'
	}
	return state[0]
}

// State is a point-in-time copy of the controller.
type State struct {
	Filters    FilterState
	Snapshot   *client.ProcessSnapshot
	Stats      Stats
	Status     Status
	Loading    bool
	IssuedSeq  uint64
	AppliedSeq uint64
}

// Pagination renders the "returned / total" label, or "" before the first load.
func (s State) Pagination() string {
	if s.Snapshot == nil {
		return ""
	}
	return PaginationLabel(s.Snapshot.ReturnedProcesses, s.Snapshot.TotalProcesses)
}

// EventKind identifies a controller notification.
type EventKind int

const (
	EventSnapshot EventKind = iota
	EventLoadFailed
	EventStale
	EventFilters
)

// Event is delivered to subscribers after the state changed.
type Event struct {
	Kind EventKind
	Seq  uint64
	Err  error
}

// LoadResult describes how one LoadProcesses call ended.
type LoadResult struct {
	Seq      uint64
	Stale    bool
	Snapshot *client.ProcessSnapshot
}

// Controller owns the filters and the last applied snapshot. Responses that
// arrive after a newer request was issued are dropped.
type Controller struct {
	fetcher Fetcher
	clock   clockwork.Clock
	logger  *zap.Logger
	metrics *metrics.PollMetrics

	mu        sync.Mutex
	filters   FilterState
	snapshot  *client.ProcessSnapshot
	stats     Stats
	status    Status
	issued    uint64
	applied   uint64
	inflight  int
	subs      map[int]func(Event)
	nextSubID int
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for status timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

// WithMetrics records loads on m.
func WithMetrics(m *metrics.PollMetrics) Option {
	return func(ctl *Controller) { ctl.metrics = m }
}

// WithFilters sets the initial filters.
func WithFilters(f FilterState) Option {
	return func(ctl *Controller) { ctl.filters = f }
}

// New creates a controller with default filters and no snapshot.
func New(fetcher Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher: fetcher,
		clock:   clockwork.NewRealClock(),
		logger:  zap.NewNop(),
		filters: DefaultFilters(),
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Filters returns the current filters.
func (c *Controller) Filters() FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// SetFilter validates raw and stores it in field. On a *ValidationError the
// filters are unchanged.
func (c *Controller) SetFilter(field Field, raw string) error {
	c.mu.Lock()
	next, err := c.filters.With(field, raw)
	if err != nil {
		c.mu.Unlock()
		c.logger.Debug("filter rejected", zap.Stringer("field", field), zap.Error(err))
		return err
	}
	c.filters = next
	c.mu.Unlock()

	c.publish(Event{Kind: EventFilters})
	return nil
}

// UpdateFilter is SetFilter followed by a load for fields that refetch on
// change.
func (c *Controller) UpdateFilter(ctx context.Context, field Field, raw string) error {
	if err := c.SetFilter(field, raw); err != nil {
		return err
	}
	if !field.RefetchOnChange() {
		return nil
	}
	_, err := c.LoadProcesses(ctx)
	return err
}

// CycleSort advances the sort key and reloads.
func (c *Controller) CycleSort(ctx context.Context) error {
	return c.UpdateFilter(ctx, FieldSortBy, string(c.Filters().SortBy.Next()))
}

// LoadProcesses fetches a snapshot for the current filters. A response
// overtaken by a later request is discarded and reported as Stale with a nil
// error. On failure the previous snapshot is kept.
func (c *Controller) LoadProcesses(ctx context.Context) (LoadResult, error) {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	query := c.filters.Query()
	c.inflight++
	c.mu.Unlock()

	log := c.logger.With(zap.Uint64("seq", seq))
	log.Debug("loading processes", zap.String("query", query.Encode()))

	snap, err := c.fetcher.ListProcesses(ctx, query)

	c.mu.Lock()
	c.inflight--
	if seq != c.issued {
		latest := c.issued
		c.mu.Unlock()
		log.Debug("discarding stale process response", zap.Uint64("latest", latest))
		c.metrics.ObserveLoad(metrics.LoadStale, 0)
		c.publish(Event{Kind: EventStale, Seq: seq})
		return LoadResult{Seq: seq, Stale: true}, nil
	}

	if err != nil {
		c.status = Status{Kind: StatusError, Message: "Failed to load processes: " + err.Error(), At: c.clock.Now()}
		c.mu.Unlock()
		log.Warn("loading processes failed", zap.Error(err))
		c.metrics.ObserveLoad(metrics.LoadFailed, 0)
		c.publish(Event{Kind: EventLoadFailed, Seq: seq, Err: err})
		return LoadResult{Seq: seq}, err
	}

	if snap == nil {
		snap = &client.ProcessSnapshot{}
	}
	c.snapshot = snap
	c.applied = seq
	c.stats = computeStats(snap.Processes)
	n := snap.ReturnedProcesses
	if n == 0 {
		n = len(snap.Processes)
	}
	c.status = Status{Kind: StatusOK, Message: fmt.Sprintf("%d processes loaded", n), At: c.clock.Now()}
	c.mu.Unlock()

	c.metrics.ObserveLoad(metrics.LoadApplied, len(snap.Processes))
	c.publish(Event{Kind: EventSnapshot, Seq: seq})
	return LoadResult{Seq: seq, Snapshot: snap}, nil
}

// Detail returns the cached record for pid. It never touches the network.
func (c *Controller) Detail(pid int) (client.ProcessRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot != nil {
		for _, p := range c.snapshot.Processes {
			if p.PID == pid {
				return p, nil
			}
		}
	}
	return client.ProcessRecord{}, fmt.Errorf("pid %d: %w", pid, ErrNotFound)
}

// SetStatus replaces the status line with an informational message.
func (c *Controller) SetStatus(kind StatusKind, msg string) {
	c.mu.Lock()
	c.status = Status{Kind: kind, Message: msg, At: c.clock.Now()}
	c.mu.Unlock()
}

// State returns a copy of the controller state. The snapshot's process slice
// is cloned.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	var snap *client.ProcessSnapshot
	if c.snapshot != nil {
		cp := *c.snapshot
		cp.Processes = slices.Clone(c.snapshot.Processes)
		snap = &cp
	}
	return State{
		Filters:    c.filters,
		Snapshot:   snap,
		Stats:      c.stats,
		Status:     c.status,
		Loading:    c.inflight > 0,
		IssuedSeq:  c.issued,
		AppliedSeq: c.applied,
	}
}

// Subscribe registers fn for every subsequent event. fn runs on the goroutine
// that changed the state and must not block. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(Event)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Controller) publish(ev Event) {
	c.mu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
