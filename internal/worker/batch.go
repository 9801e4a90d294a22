package worker

import "context"

// Map applies fn to every item on a pool of the given size and returns the
// outcomes in item order. Items skipped because ctx was cancelled have
// Ran == false.
func Map[In, Out any](ctx context.Context, workers int, items []In, fn func(context.Context, In) (Out, error)) []Outcome[Out] {
	if len(items) == 0 {
		return []Outcome[Out]{}
	}
	if workers > len(items) {
		workers = len(items)
	}

	pool := NewPool[Out](ctx, workers)
	pool.Start()
	for _, item := range items {
		if !pool.Submit(func(ctx context.Context) (Out, error) { return fn(ctx, item) }) {
			break
		}
	}

	outcomes := pool.Wait()
	if len(outcomes) < len(items) {
		outcomes = append(outcomes, make([]Outcome[Out], len(items)-len(outcomes))...)
	}
	return outcomes
}
