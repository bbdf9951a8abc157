package worker

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task processes the i-th item of a batch
type Task func(ctx context.Context, i int) error

// PanicError reports a task that panicked
type PanicError struct {
	Index int
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker: task %d panicked: %v", e.Index, e.Value)
}

// Message is the panic value alone
func (e *PanicError) Message() string {
	return fmt.Sprint(e.Value)
}

// Pool runs indexed tasks with bounded parallelism. A failing or panicking
// task never cancels its siblings; its error is reported at its own index.
type Pool struct {
	workers int
	logger  *zap.Logger
}

// NewPool creates a pool with the specified number of workers
func NewPool(workers int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{workers: workers, logger: logger}
}

// Workers returns the parallelism bound
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes task for every index in [0, n) and returns the per-index
// errors. Tasks not started before ctx is cancelled report ctx.Err().
func (p *Pool) Run(ctx context.Context, n int, task Task) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		g.Go(func() error {
			errs[i] = p.runOne(ctx, i, task)
			return nil
		})
	}

	_ = g.Wait()
	return errs
}

func (p *Pool) runOne(ctx context.Context, i int, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Task panicked",
				zap.Int("index", i),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			err = &PanicError{Index: i, Value: r}
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return task(ctx, i)
}

// Map applies fn to every item on the pool, keeping input order
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) (R, error)) ([]R, []error) {
	out := make([]R, len(items))
	errs := p.Run(ctx, len(items), func(ctx context.Context, i int) error {
		r, err := fn(ctx, items[i])
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	})
	return out, errs
}
