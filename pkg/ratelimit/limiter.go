package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces actions. Wait blocks until the next action may run or ctx is done.
type Limiter interface {
	Allow() bool
	Wait(ctx context.Context) error
	Reset()
}

// TokenBucket admits n actions per period, refilling continuously, with a
// burst of n. Media fetches share one bucket across all workers.
type TokenBucket struct {
	mu    sync.Mutex
	lim   *rate.Limiter
	every rate.Limit
	burst int
}

// NewTokenBucket creates a bucket admitting n actions per period
func NewTokenBucket(n int, period time.Duration) *TokenBucket {
	if n < 1 {
		n = 1
	}
	every := rate.Every(period / time.Duration(n))
	return &TokenBucket{lim: rate.NewLimiter(every, n), every: every, burst: n}
}

func (tb *TokenBucket) limiter() *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lim
}

func (tb *TokenBucket) Allow() bool {
	return tb.limiter().Allow()
}

// Wait reserves a token and sleeps until it is due. On cancellation the
// reservation is returned to the bucket.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := tb.limiter().Reserve()
	if err := sleep(ctx, r.Delay()); err != nil {
		r.Cancel()
		return err
	}
	return nil
}

// Reset refills the bucket
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.lim = rate.NewLimiter(tb.every, tb.burst)
}

// SlidingWindow admits at most n actions in any window. The orchestrator
// takes one admission per post before opening its overlay.
type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	// ring of the last n admission times, next is the oldest slot
	times []time.Time
	next  int
}

// NewSlidingWindow creates a sliding window limiter
func NewSlidingWindow(n int, window time.Duration) *SlidingWindow {
	if n < 1 {
		n = 1
	}
	return &SlidingWindow{window: window, times: make([]time.Time, n)}
}

// PerMinute returns a sliding window limiter admitting n actions per minute.
// n <= 0 disables limiting.
func PerMinute(n int) Limiter {
	if n <= 0 {
		return Unlimited{}
	}
	return NewSlidingWindow(n, time.Minute)
}

func (sw *SlidingWindow) Allow() bool {
	_, ok := sw.admit(time.Now())
	return ok
}

// admit records now if the oldest slot has left the window, otherwise it
// returns how long until it does
func (sw *SlidingWindow) admit(now time.Time) (time.Duration, bool) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	oldest := sw.times[sw.next]
	if !oldest.IsZero() {
		if wait := oldest.Add(sw.window).Sub(now); wait > 0 {
			return wait, false
		}
	}
	sw.times[sw.next] = now
	sw.next = (sw.next + 1) % len(sw.times)
	return 0, true
}

func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		wait, ok := sw.admit(time.Now())
		if ok {
			return nil
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Reset forgets every admission
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	clear(sw.times)
	sw.next = 0
}

// Unlimited is a Limiter that never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
