package analyzer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/sensorkit/internal/sensordata"
)

// Run applies fn to every group on up to workers goroutines and concatenates
// the results in group order. Groups share no mutable state, so fn must only
// read anything it captures. workers <= 0 means runtime.NumCPU().
func Run[T any](ctx context.Context, groups []sensordata.Group, workers int, fn func(sensordata.Group) []T) ([]T, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([][]T, len(groups))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = fn(group)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var n int
	for _, r := range results {
		n += len(r)
	}
	out := make([]T, 0, n)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// One adapts a single-record function for Run.
func One[T any](fn func(sensordata.Group) T) func(sensordata.Group) []T {
	return func(g sensordata.Group) []T { return []T{fn(g)} }
}
