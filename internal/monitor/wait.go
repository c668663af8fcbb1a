package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Wait strategies.
const (
	WaitInterval = "interval" // sleep a fixed interval between cycles
	WaitCounter  = "counter"  // poll the frame counter until it moves
)

// Waiter blocks between two poll cycles. It is the only place the loop
// yields the CPU. Wait returns early with ctx.Err() on cancellation.
type Waiter interface {
	Wait(ctx context.Context) error
}

// CounterFunc reads the current hardware frame counter.
type CounterFunc func() (uint8, error)

// NewWaiter builds the named strategy.
func NewWaiter(strategy string, interval, spin time.Duration, counter CounterFunc) (Waiter, error) {
	switch strings.ToLower(strategy) {
	case "", WaitInterval:
		return &IntervalWaiter{Interval: interval}, nil
	case WaitCounter:
		if counter == nil {
			return nil, fmt.Errorf("counter wait strategy needs a counter source")
		}
		return &CounterWaiter{Read: counter, Spin: spin, Timeout: interval}, nil
	default:
		return nil, fmt.Errorf("unknown wait strategy %q (want interval or counter)", strategy)
	}
}

// IntervalWaiter sleeps for a fixed interval.
type IntervalWaiter struct {
	Interval time.Duration
}

// Wait sleeps for the interval or until ctx is done.
func (w *IntervalWaiter) Wait(ctx context.Context) error {
	return sleep(ctx, w.Interval)
}

// CounterWaiter re-reads the frame counter every Spin until it differs from
// the value seen at the previous return, giving up after Timeout so that a
// frozen scaler still produces cycles.
type CounterWaiter struct {
	Read    CounterFunc
	Spin    time.Duration
	Timeout time.Duration

	last   uint8
	primed bool
}

// Wait blocks until the next frame, the timeout or cancellation. Read errors
// end the wait; the following header parse reports them.
func (w *CounterWaiter) Wait(ctx context.Context) error {
	if !w.primed {
		v, err := w.Read()
		if err != nil {
			return ctx.Err()
		}
		w.last, w.primed = v, true
	}

	deadline := time.Now().Add(w.Timeout)
	for {
		if err := sleep(ctx, w.Spin); err != nil {
			return err
		}
		v, err := w.Read()
		if err != nil {
			w.primed = false
			return nil
		}
		if v != w.last {
			w.last = v
			return nil
		}
		if !time.Now().Before(deadline) {
			return nil
		}
	}
}

// sleep waits for d or until ctx is done. A non-positive d still yields once.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		d = time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
