package metric

import "math"

// f8Storage keeps one byte per component. Each dimension is mapped linearly from
// the [min, max] range observed in the first appended batch onto [0, 255];
// later values outside that range are clamped.
type f8Storage struct {
	base
	codes     []uint8
	mins      []float32
	invScales []float32 // (max - min) / 255
	scales    []float32 // 255 / (max - min)
	trained   bool
}

func newF8Storage(b base) *f8Storage {
	return &f8Storage{base: b}
}

func (s *f8Storage) Len() int { return len(s.codes) / s.dim }

func (s *f8Storage) train(prepared [][]float32) {
	s.mins = make([]float32, s.dim)
	maxs := make([]float32, s.dim)
	s.scales = make([]float32, s.dim)
	s.invScales = make([]float32, s.dim)
	for k := range s.dim {
		s.mins[k] = math.MaxFloat32
		maxs[k] = -math.MaxFloat32
	}
	for _, v := range prepared {
		for k, x := range v {
			s.mins[k] = min(s.mins[k], x)
			maxs[k] = max(maxs[k], x)
		}
	}
	for k := range s.dim {
		// constant dimension
		if maxs[k] <= s.mins[k] {
			maxs[k] = s.mins[k] + 1e-6
		}
		r := maxs[k] - s.mins[k]
		s.scales[k] = 255 / r
		s.invScales[k] = r / 255
	}
	s.trained = true
}

func (s *f8Storage) Append(vectors [][]float32) {
	if len(vectors) == 0 {
		return
	}
	prepared := make([][]float32, len(vectors))
	for i, v := range vectors {
		prepared[i] = s.Prepare(v)
	}
	if !s.trained {
		s.train(prepared)
	}
	for _, v := range prepared {
		for k, x := range v {
			q := math.Round(float64((x - s.mins[k]) * s.scales[k]))
			s.codes = append(s.codes, uint8(min(max(q, 0), 255)))
		}
	}
}

func (s *f8Storage) decode(k int, c uint8) float32 {
	return s.mins[k] + float32(c)*s.invScales[k]
}

func (s *f8Storage) row(i uint32) []uint8 {
	off := int(i) * s.dim
	return s.codes[off : off+s.dim]
}

func (s *f8Storage) Distance(q []float32, i uint32) float32 {
	row := s.row(i)
	var sum float32
	if s.kind == Angular {
		for k, c := range row {
			sum += q[k] * s.decode(k, c)
		}
		return fromDot(sum)
	}
	for k, c := range row {
		d := q[k] - s.decode(k, c)
		sum += d * d
	}
	return sum
}

func (s *f8Storage) Between(i, j uint32) float32 {
	a, b := s.row(i), s.row(j)
	var sum float32
	if s.kind == Angular {
		for k := range a {
			sum += s.decode(k, a[k]) * s.decode(k, b[k])
		}
		return fromDot(sum)
	}
	for k := range a {
		d := s.decode(k, a[k]) - s.decode(k, b[k])
		sum += d * d
	}
	return sum
}

func (s *f8Storage) MemoryUsage() int64 {
	// codes plus the per-dimension mins, scales and inverse scales
	return int64(len(s.codes)) + int64(len(s.mins)+len(s.scales)+len(s.invScales))*4
}
