package index

import (
	"testing"

	"annbench/internal/metric"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateVectors(n, dim int) [][]float32 {
	vecs := make([][]float32, n)
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		v[0] = float32(i) // linearly separable along first dimension
		vecs[i] = v
	}
	return vecs
}

func TestIVFIndex_BuildAndSearch(t *testing.T) {
	vectors := generateVectors(20, 4)
	idx := newTestIndex(t, IVFIndex, metric.Euclidean, metric.F32, 4, map[string]any{"nlist": float64(5)})
	require.NoError(t, idx.Add(sequentialLabels(20), vectors))
	require.NoError(t, idx.SetSearchBreadth(2))

	res, err := idx.Search(vectors[6], 3)
	require.NoError(t, err)
	require.NotEmpty(t, res.Labels)
	assert.Equal(t, int64(6), res.Labels[0])
}

func TestIVFProbingAllListsIsExact(t *testing.T) {
	data := randomVectors(400, 6, 31)
	queries := randomVectors(20, 6, 32)

	exact := newTestIndex(t, FlatIndex, metric.Euclidean, metric.F32, 6, nil)
	require.NoError(t, exact.Add(sequentialLabels(len(data)), data))

	idx := newTestIndex(t, IVFIndex, metric.Euclidean, metric.F32, 6, map[string]any{"nlist": 16})
	require.NoError(t, idx.Add(sequentialLabels(len(data)), data))
	require.NoError(t, idx.SetSearchBreadth(16))

	for _, q := range queries {
		want, err := exact.Search(q, 5)
		require.NoError(t, err)
		got, err := idx.Search(q, 5)
		require.NoError(t, err)
		assert.Equal(t, want.Labels, got.Labels)
	}
}

func TestIVFFewerPointsThanLists(t *testing.T) {
	idx := newTestIndex(t, IVFIndex, metric.Angular, metric.F32, 2, map[string]any{"nlist": 100})
	require.NoError(t, idx.Add([]int64{0, 1, 2}, [][]float32{{1, 0}, {0, 1}, {1, 1}}))

	i := idx.(*ivfIndex)
	assert.Len(t, i.centroids, 3)

	res, err := idx.Search([]float32{1, 0.1}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, res.Labels)
}
