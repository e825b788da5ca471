// Package models contains domain models for emocheck.
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStringArray_Value(t *testing.T) {
	v, err := JSONStringArray{"yellow", "blue"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["yellow","blue"]`, v)

	v, err = JSONStringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestJSONStringArray_Scan(t *testing.T) {
	var a JSONStringArray
	require.NoError(t, a.Scan(`["a","b"]`))
	assert.Equal(t, JSONStringArray{"a", "b"}, a)

	require.NoError(t, a.Scan([]byte(`["c"]`)))
	assert.Equal(t, JSONStringArray{"c"}, a)

	require.NoError(t, a.Scan(nil))
	assert.Nil(t, a)

	require.NoError(t, a.Scan(""))
	assert.Nil(t, a)

	assert.Error(t, a.Scan(42))
	assert.Error(t, a.Scan("not json"))
}
