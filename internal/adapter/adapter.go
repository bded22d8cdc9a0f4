// Package adapter exposes an index engine through the uniform benchmark
// harness contract: construct, fit, set query arguments, query, batch query,
// report memory and free.
package adapter

import (
	"fmt"
	"maps"
	"time"

	"annbench/internal/index"
	"annbench/internal/metric"
	pkgerrors "annbench/pkg/errors"
	"annbench/pkg/logger"
)

// ANN is the contract a benchmark harness drives. Implementations assume a
// single caller; calls must not be interleaved from several goroutines.
type ANN interface {
	// Fit builds a fresh index over vectors, labelled 0..len(vectors)-1.
	Fit(vectors [][]float32) error
	// SetQueryArguments sets the runtime search breadth.
	SetQueryArguments(ef int) error
	// Query returns up to n nearest labels.
	Query(vector []float32, n int) ([]int64, error)
	// BatchQuery answers all vectors and buffers the result for GetBatchResults.
	BatchQuery(vectors [][]float32, n int) error
	// GetBatchResults returns the buffered results of the last BatchQuery.
	GetBatchResults() ([][]int64, error)
	// MemoryUsage reports the index footprint in KiB, 0 without an index.
	MemoryUsage() float64
	// Free releases the index. Safe to call without a prior Fit.
	Free()
	// String describes the configuration and current search breadth.
	String() string
}

// Definition is the construction-time configuration of an adapter.
type Definition struct {
	Algorithm  string         `yaml:"algorithm" json:"algorithm"`
	Metric     string         `yaml:"metric" json:"metric"`
	Precision  string         `yaml:"precision" json:"precision"`
	Parameters map[string]any `yaml:"parameters" json:"parameters"`
}

// required build parameters per engine
var required = map[index.IndexType][]string{
	index.HNSWIndex: {index.ParamM, index.ParamEfConstruction},
	index.IVFIndex:  {index.ParamNList},
	index.FlatIndex: nil,
}

// Algorithms lists the engine names a Definition may select.
func Algorithms() []string {
	types := index.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

// Adapter owns at most one live index.
type Adapter struct {
	algorithm index.IndexType
	kind      metric.Kind
	precision metric.Precision
	params    map[string]any

	index   index.VectorIndex
	ef      int
	results resultBuffer
}

var _ ANN = (*Adapter)(nil)

// New validates def eagerly. Nothing is allocated until Fit.
func New(def Definition) (*Adapter, error) {
	algorithm := index.IndexType(def.Algorithm)
	if algorithm == "" {
		algorithm = index.HNSWIndex
	}
	keys, ok := required[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: algorithm %q", pkgerrors.ErrUnsupportedConfiguration, def.Algorithm)
	}

	kind, err := metric.ParseKind(def.Metric)
	if err != nil {
		return nil, err
	}
	precision, err := metric.ParsePrecision(def.Precision)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		v, present, err := index.IntParam(def.Parameters, key)
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, fmt.Errorf("%w: %s is required for %s", pkgerrors.ErrInvalidParameter, key, algorithm)
		}
		if v <= 0 {
			return nil, fmt.Errorf("%w: %s must be positive, got %d", pkgerrors.ErrInvalidParameter, key, v)
		}
	}

	return &Adapter{
		algorithm: algorithm,
		kind:      kind,
		precision: precision,
		params:    maps.Clone(def.Parameters),
	}, nil
}

// Fit is not idempotent: a live index is released and rebuilt.
func (a *Adapter) Fit(vectors [][]float32) error {
	if len(vectors) == 0 {
		return fmt.Errorf("%w: fit needs at least one vector", pkgerrors.ErrInvalidParameter)
	}
	if a.index != nil {
		logger.Warn("Fit called on a live index, releasing it", "algorithm", a.algorithm)
		a.Free()
	}

	start := time.Now()
	idx, err := index.New(&index.IndexConfig{
		IndexType:  a.algorithm,
		Dimension:  len(vectors[0]),
		Metric:     a.kind,
		Precision:  a.precision,
		Parameters: a.params,
	})
	if err != nil {
		return err
	}

	labels := make([]int64, len(vectors))
	for i := range labels {
		labels[i] = int64(i)
	}
	if err := idx.Add(labels, vectors); err != nil {
		_ = idx.Close()
		return err
	}

	a.index = idx
	a.ef = 0
	logger.Info("Fitted index",
		"algorithm", a.algorithm,
		"points", len(vectors),
		"dimension", len(vectors[0]),
		"elapsed", time.Since(start),
		"memory_kib", a.MemoryUsage())
	return nil
}

func (a *Adapter) live() error {
	if a.index == nil {
		return fmt.Errorf("%w: no index, call Fit first", pkgerrors.ErrInvalidState)
	}
	return nil
}

func (a *Adapter) SetQueryArguments(ef int) error {
	if err := a.live(); err != nil {
		return err
	}
	if err := a.index.SetSearchBreadth(ef); err != nil {
		return err
	}
	a.ef = ef
	logger.Debug("Set search breadth", "algorithm", a.algorithm, "ef", ef)
	return nil
}

func (a *Adapter) Query(vector []float32, n int) ([]int64, error) {
	if err := a.live(); err != nil {
		return nil, err
	}
	res, err := a.index.Search(vector, n)
	if err != nil {
		return nil, err
	}
	return res.Labels, nil
}

func (a *Adapter) BatchQuery(vectors [][]float32, n int) error {
	if err := a.live(); err != nil {
		return err
	}
	found, err := a.index.BatchSearch(vectors, n)
	if err != nil {
		return err
	}
	labels := make([][]int64, len(found))
	for i, res := range found {
		labels[i] = res.Labels
	}
	a.results.set(labels)
	return nil
}

func (a *Adapter) GetBatchResults() ([][]int64, error) {
	return a.results.get()
}

func (a *Adapter) MemoryUsage() float64 {
	if a.index == nil {
		return 0
	}
	return float64(a.index.MemoryUsage()) / 1024
}

func (a *Adapter) Free() {
	if a.index == nil {
		return
	}
	_ = a.index.Close()
	a.index = nil
	a.ef = 0
	a.results.reset()
	logger.Info("Freed index", "algorithm", a.algorithm)
}

func (a *Adapter) String() string {
	ef := a.ef
	if a.index != nil {
		ef = a.index.SearchBreadth()
	}
	return fmt.Sprintf("%s(%s, %s, %v, ef: %d)", a.algorithm, a.kind, a.precision, a.params, ef)
}
