package index

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	pkgerrors "annbench/pkg/errors"
)

// IntParam reads an integer build parameter. Values decoded from YAML or JSON
// arrive as any integer kind, float64 or a numeric string; fractional values
// are rejected. ok is false when the key is absent.
func IntParam(params map[string]any, key string) (value int, ok bool, err error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int32:
		return int(v), true, nil
	case int64:
		return int(v), true, nil
	case uint32:
		return int(v), true, nil
	case uint64:
		return int(v), true, nil
	case float32:
		return floatParam(key, float64(v))
	case float64:
		return floatParam(key, v)
	case string:
		n, perr := strconv.Atoi(strings.TrimSpace(v))
		if perr != nil {
			return 0, true, fmt.Errorf("%w: %s=%q is not an integer", pkgerrors.ErrInvalidParameter, key, v)
		}
		return n, true, nil
	}
	return 0, true, fmt.Errorf("%w: %s has unsupported type %T", pkgerrors.ErrInvalidParameter, key, raw)
}

func floatParam(key string, f float64) (int, bool, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, true, fmt.Errorf("%w: %s=%v is not an integer", pkgerrors.ErrInvalidParameter, key, f)
	}
	return int(f), true, nil
}

// positiveParam returns the parameter or def when absent; present values must be positive.
func positiveParam(params map[string]any, key string, def int) (int, error) {
	v, ok, err := IntParam(params, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", pkgerrors.ErrInvalidParameter, key, v)
	}
	return v, nil
}
