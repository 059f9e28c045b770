package core

// gate.go serializes mutating operations.
//
// Only one import, export or manual edit may run at a time. A second call
// made while one is pending either queues behind it (waiting up to maxWait)
// or, when the gate is configured to reject, fails immediately with ErrBusy.
// Interleaving two operations' mutate/persist/log steps is never possible.
//
// WaitForIdle lets shutdown block until the running operation has finished
// its full sequence, including any rollback.

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned when another mutating operation holds the gate and the
// caller could not, or chose not to, wait for it.
var ErrBusy = errors.New("another operation is in progress")

// DefaultMaxWait is how long a queued operation waits before ErrBusy.
const DefaultMaxWait = 30 * time.Second

// Gate allows exactly one mutating operation at a time.
type Gate struct {
	sem     *semaphore.Weighted
	maxWait time.Duration
	reject  bool

	mu      sync.RWMutex
	active  bool
	waiting int
	since   time.Time
}

// NewGate creates a gate. With reject set, Acquire never waits.
func NewGate(maxWait time.Duration, reject bool) *Gate {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Gate{
		sem:     semaphore.NewWeighted(1),
		maxWait: maxWait,
		reject:  reject,
	}
}

// Acquire takes the gate, queuing behind a running operation for at most
// maxWait. Returns ErrBusy on timeout, or ctx.Err() if ctx ends first.
// The caller MUST call Release when done (use defer).
func (g *Gate) Acquire(ctx context.Context) error {
	if g.reject {
		if !g.TryAcquire() {
			return ErrBusy
		}
		return nil
	}

	g.mu.Lock()
	g.waiting++
	g.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	err := g.sem.Acquire(waitCtx, 1)

	g.mu.Lock()
	g.waiting--
	if err == nil {
		g.active = true
		g.since = time.Now()
	}
	g.mu.Unlock()

	if err != nil {
		// Distinguish caller cancellation from our own timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBusy
	}
	return nil
}

// TryAcquire takes the gate only if it is free.
func (g *Gate) TryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.mu.Lock()
	g.active = true
	g.since = time.Now()
	g.mu.Unlock()
	return true
}

// Release frees the gate. Must be called exactly once per successful
// Acquire/TryAcquire.
func (g *Gate) Release() {
	g.mu.Lock()
	g.active = false
	g.since = time.Time{}
	g.mu.Unlock()

	g.sem.Release(1)
}

// Busy reports whether an operation currently holds the gate.
func (g *Gate) Busy() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// WaitForIdle blocks until no operation holds the gate or ctx is done.
// Used on shutdown so an in-flight operation completes or rolls back first.
func (g *Gate) WaitForIdle(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !g.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GateStatus is a snapshot of the gate's state.
type GateStatus struct {
	Active  bool          `json:"active"`
	Waiting int           `json:"waiting"`
	Held    time.Duration `json:"held"`
	MaxWait time.Duration `json:"max_wait"`
	Reject  bool          `json:"reject"`
}

// Status returns the current gate state for monitoring/debugging.
func (g *Gate) Status() GateStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var held time.Duration
	if g.active {
		held = time.Since(g.since)
	}
	return GateStatus{
		Active:  g.active,
		Waiting: g.waiting,
		Held:    held,
		MaxWait: g.maxWait,
		Reject:  g.reject,
	}
}
