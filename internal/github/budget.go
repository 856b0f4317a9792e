package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RequestBudget tracks the platform's primary rate limit so a run slows down
// instead of burning calls into 403 responses. The budget starts at a
// conservative default and is corrected from the X-RateLimit headers of every
// response it observes.
type RequestBudget struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	cooldown  time.Time
	probed    bool
	notifyCh  chan struct{}
	now       func() time.Time
}

func NewRequestBudget() *RequestBudget {
	return &RequestBudget{
		remaining: 5000,
		reset:     time.Now().Add(time.Hour),
		notifyCh:  make(chan struct{}),
		now:       time.Now,
	}
}

func (b *RequestBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Acquire blocks until one request may be sent or ctx is canceled. When the
// budget is exhausted it waits for the advertised reset time, then lets a
// single probe request through to learn the refreshed limits.
func (b *RequestBudget) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := b.now()

		if now.Before(b.cooldown) {
			wakeAt, ch := b.cooldown, b.notifyCh
			b.mu.Unlock()
			if err := waitUntil(ctx, now, wakeAt, ch); err != nil {
				return err
			}
			continue
		}

		if b.remaining > 0 {
			b.remaining--
			b.mu.Unlock()
			return nil
		}

		if !now.Before(b.reset) {
			if !b.probed {
				b.probed = true
				b.mu.Unlock()
				return nil
			}
			// A probe is already in flight; wait for its headers.
			ch := b.notifyCh
			b.mu.Unlock()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ch:
				continue
			}
		}

		wakeAt, ch := b.reset, b.notifyCh
		b.mu.Unlock()
		if err := waitUntil(ctx, now, wakeAt, ch); err != nil {
			return err
		}
	}
}

// waitUntil sleeps until wakeAt, a budget-change signal, or cancellation.
func waitUntil(ctx context.Context, now, wakeAt time.Time, ch <-chan struct{}) error {
	wait := wakeAt.Sub(now)
	if wait < 0 {
		wait = 0
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	case <-timer.C:
		return nil
	}
}

// Observe folds a response's rate-limit headers into the budget.
func (b *RequestBudget) Observe(resp *http.Response) {
	if b == nil || resp == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	changed := false

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
			until := b.now().Add(time.Duration(seconds) * time.Second)
			if until.After(b.cooldown) {
				b.cooldown = until
				changed = true
			}
		}
	}

	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil && val >= 0 && b.remaining != val {
			b.remaining = val
			changed = true
		}
	}

	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if val, err := strconv.ParseInt(reset, 10, 64); err == nil && val > 0 {
			newReset := time.Unix(val, 0)
			if !b.reset.Equal(newReset) {
				b.reset = newReset
				changed = true
			}
		}
	}

	if changed {
		b.probed = false
		close(b.notifyCh)
		b.notifyCh = make(chan struct{})
	}
}
