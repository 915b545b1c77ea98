package engine

import (
	"fmt"
	"sync"
)

// workItem holds one job of a batch with its position.
type workItem[J any] struct {
	Seq int
	Job J
}

// workResult holds the rows produced for one job.
type workResult[R any] struct {
	Seq  int
	Rows []R
	Err  error
}

// parallelRun runs fn over work items using a pool of workers.
// Results are sent in arrival order (not sequence order).
func parallelRun[J, R any](items <-chan workItem[J], workers int, fn func(J) ([]R, error)) <-chan workResult[R] {
	results := make(chan workResult[R], 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				rows, err := fn(item.Job)
				results <- workResult[R]{Seq: item.Seq, Rows: rows, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// orderedCollect calls fn for each result in sequence-number order.
// Out-of-order results wait in a pending map until their turn.
// Blocks until the results channel is closed.
func orderedCollect[R any](results <-chan workResult[R], fn func(workResult[R]) error) error {
	pending := make(map[int]workResult[R])
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// runBatch runs every job and returns their rows in job order.
// The first failing job (in job order) aborts the batch.
func runBatch[J, R any](jobs []J, workers int, fn func(J) ([]R, error)) ([][]R, error) {
	items := make(chan workItem[J], len(jobs))
	for i, j := range jobs {
		items <- workItem[J]{Seq: i, Job: j}
	}
	close(items)

	if workers > len(jobs) {
		workers = max(len(jobs), 1)
	}

	out := make([][]R, 0, len(jobs))
	err := orderedCollect(parallelRun(items, workers, fn), func(r workResult[R]) error {
		if r.Err != nil {
			return fmt.Errorf("job %d: %w", r.Seq, r.Err)
		}
		out = append(out, r.Rows)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
