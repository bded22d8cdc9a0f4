package index

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// batchSearch runs search for every vector on a bounded worker group and
// returns results in input order. search must be safe for concurrent use.
func batchSearch(vectors [][]float32, n int, search func([]float32, int) (*SearchResult, error)) ([]*SearchResult, error) {
	results := make([]*SearchResult, len(vectors))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, v := range vectors {
		g.Go(func() error {
			res, err := search(v, n)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
