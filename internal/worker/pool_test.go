package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	if p := NewPool(5, nil); p.Workers() != 5 {
		t.Errorf("expected 5 workers, got %d", p.Workers())
	}
	if p := NewPool(0, nil); p.Workers() != 1 {
		t.Errorf("expected default 1 worker for 0 input, got %d", p.Workers())
	}
	if p := NewPool(-1, nil); p.Workers() != 1 {
		t.Errorf("expected default 1 worker for negative input, got %d", p.Workers())
	}
}

func TestPool_RunAllTasks(t *testing.T) {
	pool := NewPool(3, nil)
	var executed int32

	errs := pool.Run(context.Background(), 10, func(ctx context.Context, i int) error {
		atomic.AddInt32(&executed, 1)
		return nil
	})

	if len(errs) != 10 {
		t.Fatalf("expected 10 error slots, got %d", len(errs))
	}
	if executed != 10 {
		t.Errorf("expected 10 executions, got %d", executed)
	}
	for i, err := range errs {
		if err != nil {
			t.Errorf("task %d: unexpected error %v", i, err)
		}
	}
}

func TestPool_ErrorsStayAtTheirIndex(t *testing.T) {
	pool := NewPool(2, nil)
	boom := errors.New("boom")

	errs := pool.Run(context.Background(), 4, func(ctx context.Context, i int) error {
		if i == 2 {
			return boom
		}
		return nil
	})

	for i, err := range errs {
		if i == 2 && !errors.Is(err, boom) {
			t.Errorf("expected boom at index 2, got %v", err)
		}
		if i != 2 && err != nil {
			t.Errorf("task %d: unexpected error %v", i, err)
		}
	}
}

func TestPool_RecoversPanics(t *testing.T) {
	pool := NewPool(2, nil)

	errs := pool.Run(context.Background(), 3, func(ctx context.Context, i int) error {
		if i == 1 {
			panic("bad claim")
		}
		return nil
	})

	if errs[1] == nil || !strings.Contains(errs[1].Error(), "bad claim") {
		t.Errorf("expected panic error at index 1, got %v", errs[1])
	}
	var panicked *PanicError
	if !errors.As(errs[1], &panicked) || panicked.Index != 1 || panicked.Message() != "bad claim" {
		t.Errorf("expected PanicError for index 1, got %#v", errs[1])
	}
	if errs[0] != nil || errs[2] != nil {
		t.Errorf("siblings should succeed, got %v and %v", errs[0], errs[2])
	}
}

func TestPool_BoundedParallelism(t *testing.T) {
	pool := NewPool(2, nil)
	var running, peak int32

	pool.Run(context.Background(), 8, func(ctx context.Context, i int) error {
		n := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	})

	if peak > 2 {
		t.Errorf("expected at most 2 concurrent tasks, saw %d", peak)
	}
}

func TestPool_CancelledContext(t *testing.T) {
	pool := NewPool(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := pool.Run(ctx, 3, func(ctx context.Context, i int) error {
		t.Errorf("task %d should not run", i)
		return nil
	})

	for i, err := range errs {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("task %d: expected context.Canceled, got %v", i, err)
		}
	}
}

func TestMap_KeepsOrder(t *testing.T) {
	pool := NewPool(4, nil)
	items := []int{5, 1, 4, 2, 3}

	out, errs := Map(context.Background(), pool, items, func(ctx context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})

	want := []int{50, 10, 40, 20, 30}
	for i := range want {
		if errs[i] != nil {
			t.Fatalf("item %d: %v", i, errs[i])
		}
		if out[i] != want[i] {
			t.Errorf("item %d: expected %d, got %d", i, want[i], out[i])
		}
	}
}
