package bench

import (
	"fmt"
	"math/rand/v2"

	"annbench/internal/config"
	"annbench/internal/index"
	"annbench/internal/metric"
	pkgerrors "annbench/pkg/errors"
)

// Dataset is a train/test split of synthetic vectors.
type Dataset struct {
	Name  string
	Train [][]float32
	Test  [][]float32

	truth map[metric.Kind][][]int64
	k     int
}

// Generate draws a seeded dataset. Train and test come from the same distribution.
func Generate(cfg config.DatasetConfig) (*Dataset, error) {
	if cfg.Size <= 0 || cfg.Queries <= 0 || cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dataset size, queries and dimension must be positive", pkgerrors.ErrInvalidParameter)
	}
	var draw func(*rand.Rand) float32
	switch cfg.Distribution {
	case config.Uniform, "":
		draw = func(r *rand.Rand) float32 { return r.Float32()*2 - 1 }
	case config.Gaussian:
		draw = func(r *rand.Rand) float32 { return float32(r.NormFloat64()) }
	default:
		return nil, fmt.Errorf("%w: distribution %q", pkgerrors.ErrUnsupportedConfiguration, cfg.Distribution)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	sample := func(n int) [][]float32 {
		out := make([][]float32, n)
		for i := range out {
			v := make([]float32, cfg.Dimension)
			for d := range v {
				v[d] = draw(rng)
			}
			out[i] = v
		}
		return out
	}

	return &Dataset{
		Name:  cfg.Name,
		Train: sample(cfg.Size),
		Test:  sample(cfg.Queries),
		truth: make(map[metric.Kind][][]int64),
	}, nil
}

// Neighbors returns the exact k nearest train labels of every test vector under
// kind, computed once per kind with an exhaustive f64 index.
func (d *Dataset) Neighbors(kind metric.Kind, k int) ([][]int64, error) {
	if k != d.k {
		d.truth = make(map[metric.Kind][][]int64)
		d.k = k
	}
	if truth, ok := d.truth[kind]; ok {
		return truth, nil
	}

	exact, err := index.New(&index.IndexConfig{
		IndexType: index.FlatIndex,
		Dimension: len(d.Train[0]),
		Metric:    kind,
		Precision: metric.F64,
	})
	if err != nil {
		return nil, err
	}
	defer exact.Close()

	labels := make([]int64, len(d.Train))
	for i := range labels {
		labels[i] = int64(i)
	}
	if err := exact.Add(labels, d.Train); err != nil {
		return nil, err
	}
	found, err := exact.BatchSearch(d.Test, k)
	if err != nil {
		return nil, err
	}
	truth := make([][]int64, len(found))
	for i, res := range found {
		truth[i] = res.Labels
	}
	d.truth[kind] = truth
	return truth, nil
}

// Recall is the fraction of want found in got.
func Recall(got, want []int64) float64 {
	if len(want) == 0 {
		return 1
	}
	truth := make(map[int64]struct{}, len(want))
	for _, l := range want {
		truth[l] = struct{}{}
	}
	hits := 0
	for _, l := range got {
		if _, ok := truth[l]; ok {
			hits++
			delete(truth, l)
		}
	}
	return float64(hits) / float64(len(want))
}

func meanRecall(got, want [][]int64) float64 {
	if len(want) == 0 {
		return 0
	}
	var total float64
	for i := range want {
		total += Recall(got[i], want[i])
	}
	return total / float64(len(want))
}
