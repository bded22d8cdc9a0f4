package index

import (
	"fmt"
	"sync"

	"annbench/internal/metric"
	pkgerrors "annbench/pkg/errors"
)

// core is the state every engine shares: the resolved metric, encoded vectors,
// the slot/label mapping and the lock that orders writers against searches.
type core struct {
	mu     sync.RWMutex
	config *IndexConfig
	metric *metric.Metric
	store  metric.Storage
	labels *labelSet
	closed bool
}

func (c *core) init(config *IndexConfig) error {
	m, err := metric.Resolve(config.Dimension, config.Metric, config.Precision)
	if err != nil {
		return err
	}
	c.config = config
	c.metric = m
	c.store = m.NewStorage()
	c.labels = newLabelSet()
	return nil
}

func (c *core) Dimension() int { return c.metric.Dimension() }

func (c *core) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return 0
	}
	return c.labels.len()
}

// validateAdd checks a batch without mutating anything. Caller holds the write lock.
func (c *core) validateAdd(labels []int64, vectors [][]float32) error {
	if c.closed {
		return fmt.Errorf("%w: index is closed", pkgerrors.ErrInvalidState)
	}
	if len(labels) != len(vectors) {
		return fmt.Errorf("%w: %d labels for %d vectors", pkgerrors.ErrDimensionMismatch, len(labels), len(vectors))
	}
	dim := c.Dimension()
	for _, v := range vectors {
		if len(v) != dim {
			return pkgerrors.NewDimensionMismatch(dim, len(v))
		}
	}
	return c.labels.validate(labels)
}

// validateQuery checks a query. Caller holds at least the read lock.
func (c *core) validateQuery(vector []float32, n int) error {
	if c.closed {
		return fmt.Errorf("%w: index is closed", pkgerrors.ErrInvalidState)
	}
	if n <= 0 {
		return fmt.Errorf("%w: n must be positive, got %d", pkgerrors.ErrInvalidParameter, n)
	}
	if len(vector) != c.Dimension() {
		return pkgerrors.NewDimensionMismatch(c.Dimension(), len(vector))
	}
	return nil
}

func validateBreadth(ef int) error {
	if ef <= 0 {
		return fmt.Errorf("%w: search breadth must be positive, got %d", pkgerrors.ErrInvalidParameter, ef)
	}
	return nil
}

// exhaustive scores every stored point against a prepared query.
func (c *core) exhaustive(q []float32, n int) *SearchResult {
	total := c.store.Len()
	all := make([]candidate, total)
	for i := range total {
		all[i] = candidate{slot: uint32(i), dist: c.store.Distance(q, uint32(i))}
	}
	return c.result(all, n)
}

// result sorts candidates nearest first, keeps n and resolves labels.
func (c *core) result(cands []candidate, n int) *SearchResult {
	sortCandidates(cands)
	if n > len(cands) {
		n = len(cands)
	}
	res := &SearchResult{
		Labels:    make([]int64, n),
		Distances: make([]float32, n),
	}
	for i := 0; i < n; i++ {
		res.Labels[i] = c.labels.label(cands[i].slot)
		res.Distances[i] = cands[i].dist
	}
	return res
}

// release drops vectors and labels. Caller holds the write lock.
func (c *core) release() {
	c.closed = true
	c.store = nil
	c.labels = newLabelSet()
}

func (c *core) memoryUsage() int64 {
	if c.closed {
		return 0
	}
	return c.store.MemoryUsage() + c.labels.memoryUsage()
}
