package index

import (
	"testing"

	pkgerrors "annbench/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestIntParam(t *testing.T) {
	params := map[string]any{
		"int":     16,
		"int64":   int64(200),
		"float":   float64(32),
		"string":  " 8 ",
		"frac":    1.5,
		"bad":     "many",
		"nil":     nil,
		"unknown": []int{1},
	}

	v, ok, err := IntParam(params, "int")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 16, v)

	v, _, _ = IntParam(params, "int64")
	assert.Equal(t, 200, v)
	v, _, _ = IntParam(params, "float")
	assert.Equal(t, 32, v)
	v, _, _ = IntParam(params, "string")
	assert.Equal(t, 8, v)

	_, ok, err = IntParam(params, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = IntParam(params, "nil")
	assert.NoError(t, err)
	assert.False(t, ok)

	for _, key := range []string{"frac", "bad", "unknown"} {
		_, ok, err = IntParam(params, key)
		assert.True(t, ok, key)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidParameter, key)
	}

	_, ok, err = IntParam(nil, "M")
	assert.NoError(t, err)
	assert.False(t, ok)
}
