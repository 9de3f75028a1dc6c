package stream

import (
	"context"
	"sync"
)

// Merge forwards values from every source as they arrive. No ordering is
// imposed between sources.
//
// The output closes once all sources have closed. The first error from any
// source is forwarded last: the remaining sources are abandoned and their
// producers observe the cancellation of the derived context.
func Merge[T any](ctx context.Context, sources ...<-chan Event[T]) <-chan Event[T] {
	mergeCtx, cancel := context.WithCancel(ctx)
	out := make(chan Event[T])

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for _, src := range sources {
		wg.Add(1)
		go func(src <-chan Event[T]) {
			defer wg.Done()
			for {
				select {
				case ev, open := <-src:
					if !open {
						return
					}
					if ev.Err != nil {
						errOnce.Do(func() {
							firstErr = ev.Err
							cancel()
						})
						return
					}
					if !Send(mergeCtx, out, ev) {
						return
					}
				case <-mergeCtx.Done():
					return
				}
			}
		}(src)
	}

	go func() {
		defer close(out)
		defer cancel()
		wg.Wait()
		if firstErr != nil {
			Send(ctx, out, Error[T](firstErr))
		}
	}()

	return out
}
