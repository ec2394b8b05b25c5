// Package refresh drives per-panel refresh sessions: it issues fetches when
// filters change, keeps the latest result and samples a synthetic progress
// indicator whose completion is decoupled from network latency.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"deadlock-tracker/internal/domain"
	"deadlock-tracker/internal/metrics"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseAnimating
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseFetching:
		return "fetching"
	case PhaseAnimating:
		return "animating"
	case PhaseSettled:
		return "settled"
	}
	return "idle"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

var ErrSessionClosed = errors.New("refresh session closed")

// Fetcher loads a panel's data for a date range.
type Fetcher[T any] func(ctx context.Context, filters domain.DateRange) (T, error)

// Snapshot is a point-in-time view of a session.
type Snapshot[T any] struct {
	Key          string           `json:"key"`
	Phase        Phase            `json:"phase"`
	IsFetching   bool             `json:"is_fetching"`
	IsRefreshing bool             `json:"is_refreshing"`
	Progress     float64          `json:"progress"`
	Filters      domain.DateRange `json:"filters"`
	Data         T                `json:"data"`
	HasData      bool             `json:"has_data"`
	Err          error            `json:"-"`
	Error        string           `json:"error,omitempty"`
	UpdatedAt    *time.Time       `json:"updated_at,omitempty"`
}

type Option func(*sessionOptions)

type sessionOptions struct {
	clock   func() time.Time
	metrics *metrics.Metrics
	ctx     context.Context
}

func WithClock(clock func() time.Time) Option {
	return func(o *sessionOptions) { o.clock = clock }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *sessionOptions) { o.metrics = m }
}

// WithContext sets the parent of every fetch context; cancelling it has the
// same effect on in-flight fetches as Close.
func WithContext(ctx context.Context) Option {
	return func(o *sessionOptions) { o.ctx = ctx }
}

// Session is the refresh state machine of one panel. A fetch is issued on
// Start, on every filter change and on Refresh. Each fetch carries a sequence
// number and only the most recently issued one may update the session.
type Session[T any] struct {
	key     string
	fetch   Fetcher[T]
	clock   func() time.Time
	metrics *metrics.Metrics
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	filters    domain.DateRange
	seq        uint64
	fetching   bool
	refreshing bool
	animStart  time.Time
	resolvedIn time.Duration
	progress   float64
	data       T
	hasData    bool
	err        error
	updatedAt  time.Time
	settled    bool
	closed     bool
}

func NewSession[T any](key string, fetch Fetcher[T], logger zerolog.Logger, opts ...Option) *Session[T] {
	o := sessionOptions{clock: time.Now, ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(o.ctx)
	return &Session[T]{
		key:     key,
		fetch:   fetch,
		clock:   o.clock,
		metrics: o.metrics,
		logger:  logger.With().Str("panel", key).Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Session[T]) Key() string {
	return s.key
}

// Start performs the initial load with the given filters.
func (s *Session[T]) Start(filters domain.DateRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.filters = filters
	s.beginLocked()
	return nil
}

// SetFilters applies a new date range. An identical pair is a no-op and
// reports false; otherwise a fetch is issued and the animation restarts.
func (s *Session[T]) SetFilters(filters domain.DateRange) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrSessionClosed
	}
	if s.seq > 0 && s.filters.Equal(filters) {
		return false, nil
	}
	s.filters = filters
	s.beginLocked()
	return true, nil
}

// Refresh re-fetches with the current filters.
func (s *Session[T]) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.beginLocked()
	return nil
}

func (s *Session[T]) beginLocked() {
	s.seq++
	seq := s.seq
	filters := s.filters

	s.fetching = true
	s.refreshing = true
	s.settled = false
	s.progress = 0
	s.resolvedIn = 0
	s.animStart = s.clock()

	s.logger.Debug().
		Uint64("seq", seq).
		Str("filters", filters.Signature()).
		Msg("fetch issued")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		data, err := s.fetch(s.ctx, filters)
		s.resolve(seq, data, err)
	}()
}

func (s *Session[T]) resolve(seq uint64, data T, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if seq != s.seq {
		s.metrics.IncStale(s.key)
		s.logger.Warn().
			Uint64("seq", seq).
			Uint64("latest_seq", s.seq).
			Msg("discarding stale response")
		return
	}

	now := s.clock()
	s.fetching = false
	s.resolvedIn = max(now.Sub(s.animStart), 0)
	if err != nil {
		s.err = err
		s.logger.Error().Err(err).Uint64("seq", seq).Msg("panel fetch failed")
		return
	}
	s.data = data
	s.hasData = true
	s.err = nil
	s.updatedAt = now
	s.logger.Info().
		Uint64("seq", seq).
		Dur("duration", s.resolvedIn).
		Msg("panel fetch completed")
}

// Tick samples the progress indicator at now and returns the resulting
// snapshot. Samples must be taken with non-decreasing now; the displayed
// value never moves backwards within one animation.
func (s *Session[T]) Tick(now time.Time) Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshing {
		elapsed := max(now.Sub(s.animStart), 0)
		state := FetchState{Resolved: !s.fetching, ResolvedAfter: s.resolvedIn}
		if next := Progress(elapsed, state); next > s.progress {
			s.progress = next
		}
		if settleAt, ok := SettleAt(state); ok && s.progress >= 100 && elapsed >= settleAt {
			s.refreshing = false
			s.progress = 0
			s.settled = true
		}
	}
	return s.snapshotLocked()
}

// Snapshot returns the current state without advancing the animation.
func (s *Session[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session[T]) snapshotLocked() Snapshot[T] {
	snap := Snapshot[T]{
		Key:          s.key,
		Phase:        s.phaseLocked(),
		IsFetching:   s.fetching,
		IsRefreshing: s.refreshing,
		Progress:     s.progress,
		Filters:      s.filters,
		Data:         s.data,
		HasData:      s.hasData,
		Err:          s.err,
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	if !s.updatedAt.IsZero() {
		at := s.updatedAt
		snap.UpdatedAt = &at
	}
	return snap
}

func (s *Session[T]) phaseLocked() Phase {
	switch {
	case s.fetching:
		return PhaseFetching
	case s.refreshing:
		return PhaseAnimating
	case s.settled:
		return PhaseSettled
	}
	return PhaseIdle
}

// Close cancels in-flight fetches and waits for them to return. Results that
// arrive afterwards are dropped.
func (s *Session[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
