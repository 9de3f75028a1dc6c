package services

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// WorkerPool bounds the number of remote calls in flight across every
// batch of a pipeline.
type WorkerPool struct {
	sem *semaphore.Weighted
}

// NewWorkerPool creates a pool admitting size concurrent tasks. A size below
// one is treated as one.
func NewWorkerPool(size int) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{sem: semaphore.NewWeighted(int64(size))}
}

// Do runs fn once a slot is free. It returns ctx.Err() without running fn if
// ctx is done first.
func (p *WorkerPool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn(ctx)
}
