package ratelimit

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestLimiter_SequentialSpacing(t *testing.T) {
	interval := 50 * time.Millisecond
	l := New(interval)
	ctx := context.Background()

	var starts []time.Time
	for i := 0; i < 8; i++ {
		if _, err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
		starts = append(starts, time.Now())
	}

	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		if gap < interval {
			t.Errorf("gap between call %d and %d = %v, want >= %v", i-1, i, gap, interval)
		}
	}
}

func TestLimiter_FirstCallImmediate(t *testing.T) {
	l := New(time.Second)

	waited, err := l.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if waited > 50*time.Millisecond {
		t.Errorf("first Wait took %v, want immediate", waited)
	}
}

func TestLimiter_ConcurrentCallersAreSpaced(t *testing.T) {
	interval := 30 * time.Millisecond
	l := New(interval)
	ctx := context.Background()

	var mu sync.Mutex
	var starts []time.Time
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Wait(ctx); err != nil {
				t.Errorf("Wait: %v", err)
				return
			}
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	slices.SortFunc(starts, func(a, b time.Time) int { return a.Compare(b) })

	if len(starts) != 5 {
		t.Fatalf("len(starts) = %d, want 5", len(starts))
	}
	total := starts[len(starts)-1].Sub(starts[0])
	if want := 4 * interval; total < want {
		t.Errorf("5 concurrent calls spanned %v, want >= %v", total, want)
	}
}

func TestLimiter_ZeroIntervalDisabled(t *testing.T) {
	l := New(0)
	if l.Interval() != 0 {
		t.Errorf("Interval() = %v, want 0", l.Interval())
	}

	start := time.Now()
	for i := 0; i < 100; i++ {
		if _, err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("100 unlimited waits took %v", elapsed)
	}
}

func TestLimiter_ContextCancelled(t *testing.T) {
	l := New(time.Hour)
	ctx := context.Background()

	// Consume the initial token.
	if _, err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	if _, err := l.Wait(cancelled); err == nil {
		t.Error("expected error from cancelled context, got nil")
	}
}

func TestLimiter_DefaultIntervalSpacing(t *testing.T) {
	if testing.Short() {
		t.Skip("waits several default intervals")
	}
	l := New(DefaultInterval)
	ctx := context.Background()

	var prev time.Time
	for i := 0; i < 4; i++ {
		if _, err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
		now := time.Now()
		if i > 0 {
			if gap := now.Sub(prev); gap < DefaultInterval {
				t.Errorf("gap before call %d = %v, want >= %v", i, gap, DefaultInterval)
			}
		}
		prev = now
	}
}

func TestLimiter_CancelWhileQueued(t *testing.T) {
	l := New(time.Hour)
	if _, err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := l.Wait(ctx); err == nil {
		t.Fatal("expected error once the context expires, got nil")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait returned after %v, want prompt return on cancel", elapsed)
	}
}

func TestDefaultInterval(t *testing.T) {
	if DefaultInterval < time.Second/3 {
		t.Errorf("DefaultInterval = %v, must not exceed 3 requests per second", DefaultInterval)
	}
}
