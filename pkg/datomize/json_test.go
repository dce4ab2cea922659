package datomize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON(t *testing.T) {
	entity, err := FromJSON([]byte(`{
		":test/name": "grue",
		"test/count": 42,
		":test/score": 2.5,
		":test/big": 9007199254740993,
		":test/map": {"a": [1, 2]}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "grue", entity[":test/name"])
	assert.Equal(t, int64(42), entity[":test/count"], "missing colon is restored")
	assert.Equal(t, 2.5, entity[":test/score"])
	assert.Equal(t, int64(9007199254740993), entity[":test/big"], "large integers survive decoding")
	assert.Equal(t, map[string]any{"a": []any{int64(1), int64(2)}}, entity[":test/map"])
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte(`[1, 2]`))
	require.Error(t, err)

	_, err = FromJSON([]byte(`{`))
	require.Error(t, err)
}
