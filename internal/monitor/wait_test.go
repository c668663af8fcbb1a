package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewWaiter(t *testing.T) {
	counter := func() (uint8, error) { return 0, nil }

	tests := []struct {
		strategy string
		counter  CounterFunc
		wantErr  bool
	}{
		{"", nil, false},
		{WaitInterval, nil, false},
		{"COUNTER", counter, false},
		{WaitCounter, nil, true},
		{"busy", counter, true},
	}
	for _, tt := range tests {
		_, err := NewWaiter(tt.strategy, time.Millisecond, time.Millisecond, tt.counter)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewWaiter(%q) error = %v, wantErr %v", tt.strategy, err, tt.wantErr)
		}
	}
}

func TestIntervalWaiterCancel(t *testing.T) {
	w := &IntervalWaiter{Interval: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := w.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait did not return promptly on cancellation")
	}
}

func TestCounterWaiterReturnsOnChange(t *testing.T) {
	var reads atomic.Int32
	w := &CounterWaiter{
		Read: func() (uint8, error) {
			// 0 while priming and for two spins, then 1.
			if reads.Add(1) > 3 {
				return 1, nil
			}
			return 0, nil
		},
		Spin:    time.Millisecond,
		Timeout: time.Hour,
	}

	if err := w.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if got := reads.Load(); got != 4 {
		t.Errorf("Expected 4 counter reads, got %d", got)
	}
	if w.last != 1 {
		t.Errorf("Expected last counter 1, got %d", w.last)
	}
}

func TestCounterWaiterTimeout(t *testing.T) {
	w := &CounterWaiter{
		Read:    func() (uint8, error) { return 7, nil },
		Spin:    time.Millisecond,
		Timeout: 20 * time.Millisecond,
	}

	start := time.Now()
	if err := w.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Expected Wait to last the timeout, returned after %v", elapsed)
	}
}

func TestCounterWaiterReadError(t *testing.T) {
	calls := 0
	w := &CounterWaiter{
		Read: func() (uint8, error) {
			calls++
			if calls == 1 {
				return 0, nil
			}
			return 0, errors.New("window closed")
		},
		Spin:    time.Millisecond,
		Timeout: time.Hour,
	}

	if err := w.Wait(context.Background()); err != nil {
		t.Errorf("Expected read error to end the wait quietly, got %v", err)
	}
	if w.primed {
		t.Error("Expected waiter to re-prime after a read error")
	}
}

func TestCounterWaiterCancel(t *testing.T) {
	w := &CounterWaiter{
		Read:    func() (uint8, error) { return 0, nil },
		Spin:    time.Millisecond,
		Timeout: time.Hour,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := w.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}
