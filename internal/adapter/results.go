package adapter

import (
	"fmt"

	pkgerrors "annbench/pkg/errors"
)

// resultBuffer holds the label sets of the most recent batch query so the timed
// query phase is separate from result collection.
type resultBuffer struct {
	results [][]int64
	valid   bool
}

func (b *resultBuffer) set(results [][]int64) {
	b.results = results
	b.valid = true
}

// get returns a copy of the buffered results; the buffer itself is not consumed.
func (b *resultBuffer) get() ([][]int64, error) {
	if !b.valid {
		return nil, fmt.Errorf("%w: no batch query has run", pkgerrors.ErrInvalidState)
	}
	out := make([][]int64, len(b.results))
	for i, r := range b.results {
		out[i] = append([]int64(nil), r...)
	}
	return out, nil
}

func (b *resultBuffer) reset() {
	b.results = nil
	b.valid = false
}
