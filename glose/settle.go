package glose

import (
	"context"
	"sync"
)

// settleAll runs fn over every input concurrently and waits for every
// outcome, success or failure, before returning. Failures are dropped;
// successes come back in the order the calls settled, which is not the
// input order.
func settleAll[T, R any](ctx context.Context, inputs []T, fn func(context.Context, T) (R, error)) []R {
	results := make([]R, 0, len(inputs))
	if len(inputs) == 0 {
		return results
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, input := range inputs {
		wg.Add(1)
		go func(input T) {
			defer wg.Done()
			value, err := fn(ctx, input)
			if err != nil {
				return
			}
			mu.Lock()
			results = append(results, value)
			mu.Unlock()
		}(input)
	}
	wg.Wait()

	return results
}
