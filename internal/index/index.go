package index

import "annbench/internal/metric"

// IndexType names an engine implementation.
type IndexType string

// IndexConfig represents index configuration
type IndexConfig struct {
	IndexType  IndexType        // engine (hnsw, flat, ivf)
	Dimension  int              // vector dimension
	Metric     metric.Kind      // distance family
	Precision  metric.Precision // component storage width
	Parameters map[string]any   // engine-specific build parameters
}

// SearchResult holds labels ordered nearest first, with their distances.
type SearchResult struct {
	Labels    []int64
	Distances []float32
}

// VectorIndex is the capability set every engine provides. Add, SetSearchBreadth
// and Close are exclusive with respect to searches; searches may run concurrently.
type VectorIndex interface {
	// Add ingests labelled vectors. Labels must be unique over the index lifetime.
	Add(labels []int64, vectors [][]float32) error

	// SetSearchBreadth sets the query-time thoroughness (ef, or nprobe for IVF).
	SetSearchBreadth(ef int) error

	// SearchBreadth returns the current query-time thoroughness.
	SearchBreadth() int

	// Search returns up to n nearest labels.
	Search(vector []float32, n int) (*SearchResult, error)

	// BatchSearch is Search applied to each vector, preserving input order.
	BatchSearch(vectors [][]float32, n int) ([]*SearchResult, error)

	// MemoryUsage reports bytes attributable to the index.
	MemoryUsage() int64

	// Len returns the number of ingested points.
	Len() int

	// Dimension returns the fixed vector dimensionality.
	Dimension() int

	// Close releases all index memory.
	Close() error
}
