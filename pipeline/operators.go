package pipeline

import "context"

// Filter keeps only values that satisfy the predicate.
func Filter[T any](p *Pipeline[T], keep func(T) bool) *Pipeline[T] {
	return stage(p, func(_ context.Context, v T) (bool, error) { return keep(v), nil })
}

// Tap calls fn for each value and passes the value through unchanged.
// An error from fn ends the pipeline.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return stage(p, func(ctx context.Context, v T) (bool, error) { return true, fn(ctx, v) })
}

// stage runs step on each value; values for which step reports false are
// dropped and an error ends the iteration.
func stage[T any](p *Pipeline[T], step func(context.Context, T) (bool, error)) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &stageIter[T]{source: p.create(ctx), step: step}
		},
	}
}

type stageIter[T any] struct {
	source Iterator[T]
	step   func(context.Context, T) (bool, error)
}

func (it *stageIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	for {
		v, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		pass, err := it.step(ctx, v)
		if err != nil {
			return zero, false, err
		}
		if pass {
			return v, true, nil
		}
	}
}

func (it *stageIter[T]) Close() error { return it.source.Close() }
