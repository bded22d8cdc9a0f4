package bench

import (
	"context"
	"testing"

	"annbench/internal/adapter"
	"annbench/internal/config"
	"annbench/internal/metric"
	pkgerrors "annbench/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallDataset() config.DatasetConfig {
	return config.DatasetConfig{
		Name:         "test",
		Size:         500,
		Queries:      20,
		Dimension:    8,
		Seed:         7,
		Distribution: config.Uniform,
	}
}

func TestGenerate(t *testing.T) {
	cfg := smallDataset()
	ds, err := Generate(cfg)
	require.NoError(t, err)
	assert.Len(t, ds.Train, 500)
	assert.Len(t, ds.Test, 20)
	for _, v := range ds.Train {
		assert.Len(t, v, 8)
		for _, x := range v {
			assert.GreaterOrEqual(t, x, float32(-1))
			assert.Less(t, x, float32(1))
		}
	}

	again, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, ds.Train, again.Train)
	assert.Equal(t, ds.Test, again.Test)

	cfg.Distribution = config.Gaussian
	gauss, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, ds.Train, gauss.Train)
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	cfg := smallDataset()
	cfg.Distribution = "zipf"
	_, err := Generate(cfg)
	assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedConfiguration)

	cfg = smallDataset()
	cfg.Size = 0
	_, err = Generate(cfg)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidParameter)
}

func TestRecall(t *testing.T) {
	tests := []struct {
		name      string
		got, want []int64
		expected  float64
	}{
		{"exact", []int64{1, 2, 3}, []int64{3, 2, 1}, 1},
		{"half", []int64{1, 9}, []int64{1, 2}, 0.5},
		{"none", []int64{7, 8}, []int64{1, 2}, 0},
		{"duplicates count once", []int64{1, 1}, []int64{1, 2}, 0.5},
		{"empty truth", nil, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Recall(tt.got, tt.want), 1e-9)
		})
	}
}

func TestNeighborsAreExact(t *testing.T) {
	ds, err := Generate(smallDataset())
	require.NoError(t, err)

	truth, err := ds.Neighbors(metric.Euclidean, 5)
	require.NoError(t, err)
	require.Len(t, truth, len(ds.Test))

	for i, q := range ds.Test {
		require.Len(t, truth[i], 5)
		worst := metric.SquaredL2(q, ds.Train[truth[i][4]])
		for j, v := range ds.Train {
			d := metric.SquaredL2(q, v)
			if d < worst-1e-5 {
				assert.Contains(t, truth[i], int64(j))
			}
		}
	}

	cached, err := ds.Neighbors(metric.Euclidean, 5)
	require.NoError(t, err)
	assert.Equal(t, truth, cached)
}

func TestRunFlatIsExact(t *testing.T) {
	ds, err := Generate(smallDataset())
	require.NoError(t, err)
	truth, err := ds.Neighbors(metric.Euclidean, 10)
	require.NoError(t, err)

	ann, err := adapter.New(adapter.Definition{Algorithm: "flat", Metric: "euclidean", Precision: "f32"})
	require.NoError(t, err)

	results, err := Run(context.Background(), ann, ds, truth, []int{10, 20}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for i, r := range results {
		assert.Equal(t, []int{10, 20}[i], r.Ef)
		assert.Greater(t, r.Recall, 0.99)
		assert.Greater(t, r.BatchRecall, 0.99)
		assert.Greater(t, r.MemoryKiB, 0.0)
		assert.Greater(t, r.QPS, 0.0)
		assert.Contains(t, r.Name, "flat")
	}

	// Run frees the adapter
	assert.Equal(t, 0.0, ann.MemoryUsage())
}

func TestRunHonoursCancellation(t *testing.T) {
	ds, err := Generate(smallDataset())
	require.NoError(t, err)
	truth, err := ds.Neighbors(metric.Euclidean, 10)
	require.NoError(t, err)

	ann, err := adapter.New(adapter.Definition{Algorithm: "flat", Metric: "euclidean", Precision: "f32"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := Run(ctx, ann, ds, truth, []int{10}, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunAll(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset = smallDataset()
	cfg.Count = 5
	cfg.Runs = []config.RunConfig{
		{
			Definition: adapter.Definition{
				Algorithm:  "hnsw",
				Metric:     "euclidean",
				Precision:  "f32",
				Parameters: map[string]any{"M": 8, "efConstruction": 64},
			},
			QueryArgs: []int{10, 100},
		},
		{
			Definition: adapter.Definition{
				Algorithm:  "ivf",
				Metric:     "angular",
				Precision:  "f16",
				Parameters: map[string]any{"nlist": 8},
			},
			QueryArgs: []int{8},
		},
	}

	results, err := RunAll(context.Background(), cfg, Local)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Contains(t, results[0].Name, "hnsw")
	assert.GreaterOrEqual(t, results[1].Recall, results[0].Recall)
	// probing every list is exhaustive
	assert.Greater(t, results[2].Recall, 0.9)
}

func TestRunAllPropagatesFactoryError(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset = smallDataset()
	failing := func(adapter.Definition) (adapter.ANN, error) {
		return nil, pkgerrors.ErrUnsupportedConfiguration
	}
	_, err := RunAll(context.Background(), cfg, failing)
	assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedConfiguration)
}
