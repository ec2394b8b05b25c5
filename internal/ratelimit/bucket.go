// Package ratelimit gates outbound upstream requests behind a shared token bucket.
//
// A single TokenBucket is constructed per process and handed to every component
// that talks to the upstream service. Tokens are added one at a time on a fixed
// period; callers that find the bucket empty wait in strict arrival order.
package ratelimit

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrClosed = errors.New("ratelimit: bucket closed")

type waiter struct {
	ready   chan struct{}
	granted bool
	err     error
}

// TokenBucket admits callers at a steady rate with a bounded burst.
// Invariant: tokens > 0 only while the wait queue is empty.
type TokenBucket struct {
	mu       sync.Mutex
	capacity int
	tokens   int
	period   time.Duration
	queue    *list.List
	closed   bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	logger zerolog.Logger
}

// New starts a bucket that refills one token every period. The bucket starts full.
func New(capacity int, period time.Duration, logger zerolog.Logger) *TokenBucket {
	b := newBucket(capacity, period, logger)
	ticker := time.NewTicker(period)
	go b.run(ticker.C, ticker.Stop)
	return b
}

// NewWithTicks builds a bucket refilled by an externally driven tick source.
// Closing ticks has the same effect as Close.
func NewWithTicks(capacity int, ticks <-chan time.Time, logger zerolog.Logger) *TokenBucket {
	b := newBucket(capacity, 0, logger)
	go b.run(ticks, func() {})
	return b
}

func newBucket(capacity int, period time.Duration, logger zerolog.Logger) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{
		capacity: capacity,
		tokens:   capacity,
		period:   period,
		queue:    list.New(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.With().Str("component", "ratelimit").Logger(),
	}
}

func (b *TokenBucket) run(ticks <-chan time.Time, stopTicker func()) {
	defer close(b.done)
	defer stopTicker()
	for {
		select {
		case <-b.stop:
			return
		case _, ok := <-ticks:
			if !ok {
				b.shutdown()
				return
			}
			b.refill()
		}
	}
}

func (b *TokenBucket) refill() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.tokens = min(b.capacity, b.tokens+1)
	b.drainLocked()
}

// drainLocked hands available tokens to the head of the queue.
func (b *TokenBucket) drainLocked() {
	for b.tokens > 0 && b.queue.Len() > 0 {
		b.tokens--
		w := b.queue.Remove(b.queue.Front()).(*waiter)
		w.granted = true
		close(w.ready)
	}
}

// Consume blocks until a token has been granted to the caller.
// A cancelled caller leaves the queue; a token granted concurrently with the
// cancellation goes back to the bucket.
func (b *TokenBucket) Consume(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if b.tokens > 0 {
		b.tokens--
		b.mu.Unlock()
		return nil
	}
	w := &waiter{ready: make(chan struct{})}
	elem := b.queue.PushBack(w)
	depth := b.queue.Len()
	b.mu.Unlock()

	b.logger.Debug().Int("queue_depth", depth).Msg("waiting for token")

	select {
	case <-w.ready:
		return w.err
	case <-ctx.Done():
		b.mu.Lock()
		defer b.mu.Unlock()
		switch {
		case w.err != nil:
			return w.err
		case w.granted:
			b.tokens = min(b.capacity, b.tokens+1)
			b.drainLocked()
		default:
			b.queue.Remove(elem)
		}
		return ctx.Err()
	}
}

// Pending reports how many callers are waiting for a token.
func (b *TokenBucket) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.Len()
}

// Tokens reports the tokens currently available.
func (b *TokenBucket) Tokens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

func (b *TokenBucket) Capacity() int { return b.capacity }

func (b *TokenBucket) RefillPeriod() time.Duration { return b.period }

// Close stops refilling and fails every queued caller with ErrClosed.
func (b *TokenBucket) Close() error {
	b.closeOnce.Do(func() {
		close(b.stop)
		<-b.done
		b.shutdown()
	})
	return nil
}

func (b *TokenBucket) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for b.queue.Len() > 0 {
		w := b.queue.Remove(b.queue.Front()).(*waiter)
		w.err = ErrClosed
		close(w.ready)
	}
	b.logger.Debug().Msg("bucket closed")
}
