package stream

import "context"

// DistinctUntilChanged forwards a value only if its key differs from the key
// of the previously forwarded value. Errors pass through unchanged.
func DistinctUntilChanged[T any, K comparable](ctx context.Context, in <-chan Event[T], key func(T) K) <-chan Event[T] {
	out := make(chan Event[T])

	go func() {
		defer close(out)

		var (
			last    K
			hasLast bool
		)
		for {
			select {
			case ev, open := <-in:
				if !open {
					return
				}
				if ev.Err != nil {
					Send(ctx, out, ev)
					return
				}
				k := key(ev.Value)
				if hasLast && k == last {
					continue
				}
				last, hasLast = k, true
				if !Send(ctx, out, ev) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
