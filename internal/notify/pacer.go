package notify

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces out consecutive recipients of a fan-out to respect provider rate limits.
type Pacer interface {
	// Wait blocks until the next recipient may be contacted.
	Wait(ctx context.Context) error
}

// NoPacing never waits.
var NoPacing Pacer = noPacer{}

type noPacer struct{}

func (noPacer) Wait(ctx context.Context) error { return ctx.Err() }

// intervalPacer enforces a minimum interval between consecutive Wait returns.
// The first Wait returns immediately unless ctx is already done.
type intervalPacer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewPacer returns a Pacer with the given minimum spacing. A non-positive interval
// disables pacing.
func NewPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return NoPacing
	}
	return &intervalPacer{interval: interval}
}

func (p *intervalPacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if wait := p.interval - time.Since(p.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	p.last = time.Now()
	return nil
}

// PacingPolicy holds the per-audience spacing used by schedule notifications.
type PacingPolicy struct {
	Coordinator time.Duration
	Student     time.Duration
}

// Coordinators returns a fresh pacer for one coordinator fan-out.
func (p PacingPolicy) Coordinators() Pacer { return NewPacer(p.Coordinator) }

// Students returns a fresh pacer for one student fan-out.
func (p PacingPolicy) Students() Pacer { return NewPacer(p.Student) }
