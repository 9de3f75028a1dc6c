package stream

import "context"

// Event carries either a value or a terminal error.
type Event[T any] struct {
	Value T
	Err   error
}

// Value wraps v in an Event.
func Value[T any](v T) Event[T] {
	return Event[T]{Value: v}
}

// Error wraps err in a terminal Event.
func Error[T any](err error) Event[T] {
	return Event[T]{Err: err}
}

// Send delivers ev on out unless ctx is done first. It reports whether the
// event was sent.
func Send[T any](ctx context.Context, out chan<- Event[T], ev Event[T]) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Collect drains in until it closes or yields an error.
func Collect[T any](ctx context.Context, in <-chan Event[T]) ([]T, error) {
	var values []T
	for {
		select {
		case ev, open := <-in:
			if !open {
				return values, nil
			}
			if ev.Err != nil {
				return values, ev.Err
			}
			values = append(values, ev.Value)
		case <-ctx.Done():
			return values, ctx.Err()
		}
	}
}
