package index

import (
	"fmt"

	pkgerrors "annbench/pkg/errors"
)

// flatIndex scans every point on each query. Results are exact, which makes it
// the ground truth for recall measurements. Search breadth is accepted and ignored.
type flatIndex struct {
	core
	ef int
}

func newFlatIndex(config *IndexConfig) (VectorIndex, error) {
	f := &flatIndex{ef: DEFAULT_EF_SEARCH}
	if err := f.init(config); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *flatIndex) Add(labels []int64, vectors [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.validateAdd(labels, vectors); err != nil {
		return err
	}
	f.store.Append(vectors)
	f.labels.append(labels)
	return nil
}

func (f *flatIndex) SetSearchBreadth(ef int) error {
	if err := validateBreadth(ef); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("%w: index is closed", pkgerrors.ErrInvalidState)
	}
	f.ef = ef
	return nil
}

func (f *flatIndex) SearchBreadth() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ef
}

func (f *flatIndex) Search(vector []float32, n int) (*SearchResult, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.search(vector, n)
}

func (f *flatIndex) BatchSearch(vectors [][]float32, n int) ([]*SearchResult, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return batchSearch(vectors, n, f.search)
}

func (f *flatIndex) search(vector []float32, n int) (*SearchResult, error) {
	if err := f.validateQuery(vector, n); err != nil {
		return nil, err
	}
	return f.exhaustive(f.store.Prepare(vector), n), nil
}

func (f *flatIndex) MemoryUsage() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.memoryUsage()
}

func (f *flatIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.release()
	return nil
}
