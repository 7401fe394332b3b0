package pipeline

import (
	"context"
	"sync"
)

// Parallel applies fn to each value with up to n workers. Output order is
// not preserved. The first error from fn or the source stops the workers
// and is returned by the consumer's next pull.
func Parallel[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[O] {
	if n <= 0 {
		n = 1
	}
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			source := p.create(ctx)
			workerCtx, cancel := context.WithCancel(ctx)
			in := make(chan I, n)
			out := make(chan result[O], n)

			var wg sync.WaitGroup
			fail := func(err error) {
				select {
				case out <- result[O]{err: err}:
				case <-workerCtx.Done():
				}
				cancel()
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer close(in)
				for {
					val, ok, err := source.Next(workerCtx)
					if err != nil {
						if workerCtx.Err() == nil {
							fail(err)
						}
						return
					}
					if !ok {
						return
					}
					select {
					case in <- val:
					case <-workerCtx.Done():
						return
					}
				}
			}()

			for range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for val := range in {
						if workerCtx.Err() != nil {
							continue
						}
						o, err := fn(workerCtx, val)
						if err != nil {
							fail(err)
							continue
						}
						select {
						case out <- result[O]{val: o, ok: true}:
						case <-workerCtx.Done():
						}
					}
				}()
			}

			go func() {
				wg.Wait()
				close(out)
			}()

			return &channelIter[O]{
				ch: out,
				closer: func() error {
					cancel()
					// Workers may still be inside fn; let them finish before
					// the source goes away.
					for range out {
					}
					return source.Close()
				},
			}
		},
	}
}
