package guard

import (
	"context"

	"coursegen-go/logcolors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BatchResult holds the outcome of one item in a batch run.
type BatchResult[O any] struct {
	Index int
	JobID string
	Value O
	Err   error
}

// RunBatch processes items on a bounded worker pool and returns one result
// per item, in input order. Failures are collected per item rather than
// aborting the batch; callers inspect each result's Err.
func RunBatch[I, O any](ctx context.Context, workers int, items []I, fn func(ctx context.Context, jobID string, item I) (O, error)) []BatchResult[O] {
	if workers <= 0 {
		workers = 1
	}

	results := make([]BatchResult[O], len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		i, item := i, item
		jobID := uuid.NewString()
		results[i] = BatchResult[O]{Index: i, JobID: jobID}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			value, err := fn(ctx, jobID, item)
			results[i].Value = value
			results[i].Err = err
			if err != nil {
				log.Warnf("%s Job %s (item %d) failed: %v", logcolors.LogBatch, jobID, i, err)
			}
			return nil
		})
	}

	g.Wait()
	return results
}
