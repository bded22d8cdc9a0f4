// Package metric resolves a distance family and a storage precision into the
// comparison function and vector store shared by every index engine.
package metric

import (
	"fmt"
	"math"
	"strings"

	pkgerrors "annbench/pkg/errors"
)

// Kind names a distance family.
type Kind string

// Precision names the numeric representation used to store vector components.
type Precision string

const (
	Angular   Kind = "angular"
	Euclidean Kind = "euclidean"
)

const (
	F64 Precision = "f64"
	F32 Precision = "f32"
	F16 Precision = "f16"
	F8  Precision = "f8"
)

// DistanceFunc compares two vectors of equal length; smaller is closer.
type DistanceFunc func(a, b []float32) float32

// ParseKind validates a metric name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Angular, Euclidean:
		return k, nil
	}
	return "", fmt.Errorf("%w: metric %q", pkgerrors.ErrUnsupportedConfiguration, s)
}

// ParsePrecision validates a precision name.
func ParsePrecision(s string) (Precision, error) {
	switch p := Precision(strings.ToLower(strings.TrimSpace(s))); p {
	case F64, F32, F16, F8:
		return p, nil
	}
	return "", fmt.Errorf("%w: precision %q", pkgerrors.ErrUnsupportedConfiguration, s)
}

// BytesPerComponent is the storage width of one vector component.
func (p Precision) BytesPerComponent() int {
	switch p {
	case F64:
		return 8
	case F16:
		return 2
	case F8:
		return 1
	default:
		return 4
	}
}

// Metric is a resolved (dimension, kind, precision) triple.
type Metric struct {
	dim       int
	kind      Kind
	precision Precision
	distance  DistanceFunc
}

// Resolve builds the comparison function for vectors of dim components.
func Resolve(dim int, kind Kind, precision Precision) (*Metric, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", pkgerrors.ErrInvalidParameter, dim)
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if _, err := ParsePrecision(string(precision)); err != nil {
		return nil, err
	}

	m := &Metric{dim: dim, kind: kind, precision: precision}
	switch kind {
	case Angular:
		m.distance = CosineDistance
	default:
		m.distance = SquaredL2
	}
	return m, nil
}

func (m *Metric) Dimension() int       { return m.dim }
func (m *Metric) Kind() Kind           { return m.kind }
func (m *Metric) Precision() Precision { return m.precision }

// Distance compares two raw float32 vectors at full precision.
func (m *Metric) Distance(a, b []float32) float32 {
	return m.distance(a, b)
}

// Func returns the raw comparison function.
func (m *Metric) Func() DistanceFunc {
	return m.distance
}

// NewStorage returns an empty vector store encoding components at the metric's
// precision. Angular stores keep unit-normalised vectors.
func (m *Metric) NewStorage() Storage {
	normalize := m.kind == Angular
	switch m.precision {
	case F64:
		return &f64Storage{base: base{dim: m.dim, kind: m.kind, normalize: normalize}}
	case F16:
		return &f16Storage{base: base{dim: m.dim, kind: m.kind, normalize: normalize}}
	case F8:
		return newF8Storage(base{dim: m.dim, kind: m.kind, normalize: normalize})
	default:
		return &f32Storage{base: base{dim: m.dim, kind: m.kind, normalize: normalize}}
	}
}

func (m *Metric) String() string {
	return fmt.Sprintf("%s/%s/%d", m.kind, m.precision, m.dim)
}

// SquaredL2 is the squared euclidean distance.
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// CosineDistance is 1 - cos(a, b). A zero vector is at distance 1 from everything.
func CosineDistance(a, b []float32) float32 {
	var dot, na, nb float32
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1.0
	}
	return 1 - dot/float32(math.Sqrt(float64(na)*float64(nb)))
}

// Normalize returns a unit-length copy of v. Zero vectors are copied unchanged.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
