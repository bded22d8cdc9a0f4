package metric

import (
	"math"
	"testing"

	pkgerrors "annbench/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	k, err := ParseKind("Euclidean")
	require.NoError(t, err)
	assert.Equal(t, Euclidean, k)

	k, err = ParseKind("angular")
	require.NoError(t, err)
	assert.Equal(t, Angular, k)

	_, err = ParseKind("hamming")
	assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedConfiguration)

	for _, name := range []string{"f64", "f32", "f16", "f8"} {
		p, err := ParsePrecision(name)
		require.NoError(t, err)
		assert.Equal(t, Precision(name), p)
	}
	_, err = ParsePrecision("bf16")
	assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedConfiguration)
}

func TestResolve(t *testing.T) {
	m, err := Resolve(3, Euclidean, F32)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Dimension())
	assert.Equal(t, "euclidean/f32/3", m.String())

	_, err = Resolve(0, Euclidean, F32)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidParameter)

	_, err = Resolve(3, Kind("manhattan"), F32)
	assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedConfiguration)

	_, err = Resolve(3, Angular, Precision("int4"))
	assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedConfiguration)
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		kind     Kind
		expected float32
	}{
		{"L2 identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, Euclidean, 0},
		{"L2 different vectors", []float32{1, 2, 3}, []float32{4, 5, 6}, Euclidean, 27},
		{"cosine identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, Angular, 0},
		{"cosine orthogonal vectors", []float32{1, 0}, []float32{0, 1}, Angular, 1},
		{"cosine opposite vectors", []float32{1, 0}, []float32{-1, 0}, Angular, 2},
		{"cosine zero vector", []float32{0, 0}, []float32{0, 1}, Angular, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Resolve(len(tt.a), tt.kind, F32)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, m.Distance(tt.a, tt.b), 1e-6)
		})
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestStorageMatchesReference(t *testing.T) {
	vectors := [][]float32{
		{0.1, 0.2, 0.3, 0.4},
		{-0.5, 0.25, 0.0, 1.0},
		{0.9, -0.1, 0.4, -0.3},
		{0.0, 0.0, 0.0, 0.0},
	}
	query := []float32{0.2, 0.1, -0.2, 0.5}

	tolerance := map[Precision]float64{F64: 1e-6, F32: 1e-6, F16: 5e-3, F8: 5e-2}

	for _, kind := range []Kind{Euclidean, Angular} {
		for _, p := range []Precision{F64, F32, F16, F8} {
			t.Run(string(kind)+"/"+string(p), func(t *testing.T) {
				m, err := Resolve(4, kind, p)
				require.NoError(t, err)
				s := m.NewStorage()
				assert.Equal(t, int64(0), s.MemoryUsage())

				s.Append(vectors)
				assert.Equal(t, len(vectors), s.Len())
				assert.Equal(t, int64(len(vectors)*4*p.BytesPerComponent()), s.MemoryUsage()-quantizerOverhead(p, 4))

				q := s.Prepare(query)
				for i, v := range vectors {
					want := m.Distance(query, v)
					got := s.Distance(q, uint32(i))
					assert.InDelta(t, want, got, tolerance[p], "slot %d", i)
				}
				assert.InDelta(t, m.Distance(vectors[0], vectors[2]), s.Between(0, 2), tolerance[p])
			})
		}
	}
}

func quantizerOverhead(p Precision, dim int) int64 {
	if p == F8 {
		return int64(3 * dim * 4)
	}
	return 0
}

func TestF8Clamps(t *testing.T) {
	m, err := Resolve(2, Euclidean, F8)
	require.NoError(t, err)
	s := m.NewStorage()
	s.Append([][]float32{{0, 0}, {1, 1}})
	s.Append([][]float32{{5, -5}})

	q := s.Prepare([]float32{1, 0})
	// clamped to (1, 0)
	assert.InDelta(t, 0, s.Distance(q, 2), 1e-3)
	assert.False(t, math.IsNaN(float64(s.Between(0, 2))))
}
