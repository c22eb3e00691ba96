package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeFor(t *testing.T) {
	r, ok := RangeFor("ggt")
	require.True(t, ok)
	assert.Equal(t, 5.0, r.Min)
	assert.Equal(t, 500.0, r.Max)
	assert.Equal(t, "U/L", r.Unit)

	_, ok = RangeFor("cholesterol")
	assert.False(t, ok)
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check("age", 1))
	assert.NoError(t, Check("age", 120))
	assert.Error(t, Check("age", 0))
	assert.Error(t, Check("age", 121))
	assert.Error(t, Check("unknown", 1))
}

func TestFieldsCoverTheForm(t *testing.T) {
	fields := Fields()
	assert.Len(t, fields, 10)
	for _, f := range fields {
		r, ok := RangeFor(f)
		require.True(t, ok)
		assert.Less(t, r.Min, r.Max, "range for %s must be non-empty", f)
	}
}
