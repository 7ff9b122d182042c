package mapping

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/inodb/pepgenome/internal/peptide"
)

// WorkItem holds a parsed peptide ready for mapping.
type WorkItem struct {
	Seq   int
	Entry *peptide.Entry
}

// WorkResult holds the mapping of a single peptide.
type WorkResult struct {
	Seq     int
	Mapping *PeptideMapping
}

// Position returns the input position of the mapped peptide.
func (r WorkResult) Position() int {
	return r.Seq
}

// ParallelMap maps work items on a pool of workers, one per CPU when
// workers is 0. Results arrive in completion order; pass them through
// OrderedCollect to restore input order.
func (m *Mapper) ParallelMap(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make(chan WorkResult, 2*workers)

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for item := range items {
				results <- WorkResult{Seq: item.Seq, Mapping: m.Map(item.Entry)}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn on each result in position order, starting at 0.
// Results that arrive early are held until their turn. After fn fails the
// remaining results are discarded and its error is returned once the channel
// closes.
func OrderedCollect[R interface{ Position() int }](results <-chan R, fn func(R) error) error {
	held := make(map[int]R)
	next := 0
	var err error

	for r := range results {
		if err != nil {
			continue
		}
		held[r.Position()] = r

		for err == nil {
			ready, ok := held[next]
			if !ok {
				break
			}
			delete(held, next)
			next++
			err = fn(ready)
		}
	}
	return err
}
