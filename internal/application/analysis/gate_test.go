package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGateBoundsConcurrency(t *testing.T) {
	const limit = 3
	const workers = 12

	g := NewGate(limit)
	var current, max int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire(context.Background()); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			defer g.Release()

			n := atomic.AddInt64(&current, 1)
			for {
				m := atomic.LoadInt64(&max)
				if n <= m || atomic.CompareAndSwapInt64(&max, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&current, -1)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&max); got > limit {
		t.Fatalf("observed %d concurrent holders, limit is %d", got, limit)
	}
	if g.Available() != limit {
		t.Fatalf("all slots should be free after release, available=%d", g.Available())
	}
}

func TestGateAcquireHonorsContext(t *testing.T) {
	g := NewGate(1)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := g.Acquire(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	g.Release()
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestNewGateMinimumLimit(t *testing.T) {
	for _, n := range []int{0, -5} {
		if got := NewGate(n).Limit(); got != 1 {
			t.Fatalf("NewGate(%d).Limit() = %d, want 1", n, got)
		}
	}
	if got := NewGate(4).Limit(); got != 4 {
		t.Fatalf("Limit() = %d, want 4", got)
	}
}
