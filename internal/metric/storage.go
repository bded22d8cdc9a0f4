package metric

import (
	"math"

	"github.com/x448/float16"
)

// Storage holds encoded vectors addressed by insertion slot. Callers validate
// dimensionality before Append; slots are dense and start at zero.
type Storage interface {
	Dimension() int
	Len() int
	// Append encodes vectors at the end of the store.
	Append(vectors [][]float32)
	// Prepare returns the query form of v (unit-normalised for angular).
	Prepare(v []float32) []float32
	// Distance compares a prepared query against the vector in slot i.
	Distance(q []float32, i uint32) float32
	// Between compares the vectors in slots i and j.
	Between(i, j uint32) float32
	// MemoryUsage reports bytes held by encoded vectors.
	MemoryUsage() int64
}

type base struct {
	dim       int
	kind      Kind
	normalize bool
}

func (b *base) Dimension() int { return b.dim }

func (b *base) Prepare(v []float32) []float32 {
	if b.normalize {
		return Normalize(v)
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// fromDot turns a dot product of unit vectors into a cosine distance.
func fromDot(dot float32) float32 {
	return 1 - dot
}

type f32Storage struct {
	base
	data []float32
}

func (s *f32Storage) Len() int { return len(s.data) / s.dim }

func (s *f32Storage) Append(vectors [][]float32) {
	for _, v := range vectors {
		s.data = append(s.data, s.Prepare(v)...)
	}
}

func (s *f32Storage) row(i uint32) []float32 {
	off := int(i) * s.dim
	return s.data[off : off+s.dim]
}

func (s *f32Storage) Distance(q []float32, i uint32) float32 {
	return s.compare(q, s.row(i))
}

func (s *f32Storage) Between(i, j uint32) float32 {
	return s.compare(s.row(i), s.row(j))
}

func (s *f32Storage) compare(a, b []float32) float32 {
	if s.kind == Angular {
		var dot float32
		for k := range a {
			dot += a[k] * b[k]
		}
		return fromDot(dot)
	}
	return SquaredL2(a, b)
}

func (s *f32Storage) MemoryUsage() int64 { return int64(len(s.data)) * 4 }

type f64Storage struct {
	base
	data []float64
}

func (s *f64Storage) Len() int { return len(s.data) / s.dim }

func (s *f64Storage) Append(vectors [][]float32) {
	for _, v := range vectors {
		start := len(s.data)
		var norm float64
		for _, x := range v {
			s.data = append(s.data, float64(x))
			norm += float64(x) * float64(x)
		}
		if s.normalize && norm > 0 {
			inv := 1 / math.Sqrt(norm)
			for k := start; k < len(s.data); k++ {
				s.data[k] *= inv
			}
		}
	}
}

func (s *f64Storage) row(i uint32) []float64 {
	off := int(i) * s.dim
	return s.data[off : off+s.dim]
}

func (s *f64Storage) Distance(q []float32, i uint32) float32 {
	row := s.row(i)
	var sum float64
	if s.kind == Angular {
		for k, x := range row {
			sum += float64(q[k]) * x
		}
		return float32(1 - sum)
	}
	for k, x := range row {
		d := float64(q[k]) - x
		sum += d * d
	}
	return float32(sum)
}

func (s *f64Storage) Between(i, j uint32) float32 {
	a, b := s.row(i), s.row(j)
	var sum float64
	if s.kind == Angular {
		for k := range a {
			sum += a[k] * b[k]
		}
		return float32(1 - sum)
	}
	for k := range a {
		d := a[k] - b[k]
		sum += d * d
	}
	return float32(sum)
}

func (s *f64Storage) MemoryUsage() int64 { return int64(len(s.data)) * 8 }

type f16Storage struct {
	base
	data []float16.Float16
}

func (s *f16Storage) Len() int { return len(s.data) / s.dim }

func (s *f16Storage) Append(vectors [][]float32) {
	for _, v := range vectors {
		for _, x := range s.Prepare(v) {
			s.data = append(s.data, float16.Fromfloat32(x))
		}
	}
}

func (s *f16Storage) row(i uint32) []float16.Float16 {
	off := int(i) * s.dim
	return s.data[off : off+s.dim]
}

func (s *f16Storage) Distance(q []float32, i uint32) float32 {
	row := s.row(i)
	var sum float32
	if s.kind == Angular {
		for k, h := range row {
			sum += q[k] * h.Float32()
		}
		return fromDot(sum)
	}
	for k, h := range row {
		d := q[k] - h.Float32()
		sum += d * d
	}
	return sum
}

func (s *f16Storage) Between(i, j uint32) float32 {
	a, b := s.row(i), s.row(j)
	var sum float32
	if s.kind == Angular {
		for k := range a {
			sum += a[k].Float32() * b[k].Float32()
		}
		return fromDot(sum)
	}
	for k := range a {
		d := a[k].Float32() - b[k].Float32()
		sum += d * d
	}
	return sum
}

func (s *f16Storage) MemoryUsage() int64 { return int64(len(s.data)) * 2 }
