package index

import (
	"testing"

	"annbench/internal/metric"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHNSWIndex(t *testing.T) {
	idx := newTestIndex(t, HNSWIndex, metric.Euclidean, metric.F32, 3, map[string]any{
		"M":              16,
		"efConstruction": 200,
	})

	require.NoError(t, idx.Add([]int64{1}, [][]float32{{1.0, 2.0, 3.0}}))
	require.NoError(t, idx.Add([]int64{2, 3, 4}, [][]float32{
		{4.0, 5.0, 6.0},
		{7.0, 8.0, 9.0},
		{10.0, 11.0, 12.0},
	}))

	res, err := idx.Search([]float32{1.1, 2.1, 3.1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, res.Labels)
	assert.Equal(t, DEFAULT_EF_SEARCH, idx.SearchBreadth())
}

func TestHNSWSelfIsNearest(t *testing.T) {
	data := randomVectors(1000, 8, 1)
	idx := newTestIndex(t, HNSWIndex, metric.Euclidean, metric.F32, 8, map[string]any{
		"M":              16,
		"efConstruction": 200,
	})
	require.NoError(t, idx.Add(sequentialLabels(len(data)), data))
	require.NoError(t, idx.SetSearchBreadth(64))

	for _, i := range []int{0, 17, 512, 999} {
		res, err := idx.Search(data[i], 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{int64(i)}, res.Labels)
	}
}

func TestHNSWDeterministic(t *testing.T) {
	data := randomVectors(400, 6, 5)
	queries := randomVectors(10, 6, 6)

	build := func() VectorIndex {
		idx := newTestIndex(t, HNSWIndex, metric.Angular, metric.F32, 6, map[string]any{"M": 8, "efConstruction": 40})
		require.NoError(t, idx.Add(sequentialLabels(len(data)), data))
		require.NoError(t, idx.SetSearchBreadth(16))
		return idx
	}
	a, b := build(), build()

	for _, q := range queries {
		r1, err := a.Search(q, 10)
		require.NoError(t, err)
		r2, err := a.Search(q, 10)
		require.NoError(t, err)
		r3, err := b.Search(q, 10)
		require.NoError(t, err)
		assert.Equal(t, r1.Labels, r2.Labels)
		assert.Equal(t, r1.Labels, r3.Labels)
	}
	assert.Equal(t, a.MemoryUsage(), b.MemoryUsage())
}

func TestHNSWRecallGrowsWithBreadth(t *testing.T) {
	const dim, k = 8, 10
	data := randomVectors(600, dim, 21)
	queries := randomVectors(50, dim, 22)

	exact := newTestIndex(t, FlatIndex, metric.Euclidean, metric.F32, dim, nil)
	require.NoError(t, exact.Add(sequentialLabels(len(data)), data))
	truth, err := exact.BatchSearch(queries, k)
	require.NoError(t, err)

	idx := newTestIndex(t, HNSWIndex, metric.Euclidean, metric.F32, dim, map[string]any{"M": 6, "efConstruction": 32})
	require.NoError(t, idx.Add(sequentialLabels(len(data)), data))

	last := -1.0
	for _, ef := range []int{10, 40, 160, 640} {
		require.NoError(t, idx.SetSearchBreadth(ef))
		got, err := idx.BatchSearch(queries, k)
		require.NoError(t, err)

		var total float64
		for i := range queries {
			total += recall(got[i].Labels, truth[i].Labels)
		}
		mean := total / float64(len(queries))
		assert.GreaterOrEqual(t, mean, last, "ef=%d", ef)
		last = mean
	}
	assert.Greater(t, last, 0.95)
}

func TestHNSWLevelsAreBounded(t *testing.T) {
	idx := newTestIndex(t, HNSWIndex, metric.Euclidean, metric.F32, 2, map[string]any{"M": 2, "efConstruction": 4})
	h := idx.(*hnswIndex)
	for label := int64(0); label < 5000; label++ {
		level := h.levelFor(label)
		assert.GreaterOrEqual(t, level, 0)
		assert.LessOrEqual(t, level, MAX_LEVEL)
	}
	assert.Equal(t, h.levelFor(42), h.levelFor(42))
}

func TestHNSWLinksStayWithinBudget(t *testing.T) {
	data := randomVectors(300, 4, 9)
	idx := newTestIndex(t, HNSWIndex, metric.Euclidean, metric.F32, 4, map[string]any{"M": 4, "efConstruction": 32})
	require.NoError(t, idx.Add(sequentialLabels(len(data)), data))

	h := idx.(*hnswIndex)
	for _, node := range h.nodes {
		for level, links := range node.links {
			assert.LessOrEqual(t, len(links), h.maxConnections(level))
		}
	}
}
