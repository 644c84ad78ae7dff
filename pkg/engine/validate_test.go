package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	good := mustTree(t, `[
		{"set_var": {"key": "A", "value": "x"}},
		{"if": {"condition": "%A% == x", "run": [{"set_var": {"key": "B", "value": 1}}]}},
		{"paralel": {"run": [{"include": {"config_path": "other.json"}}]}}
	]`)
	assert.NoError(t, Validate(reg, good))

	bad := mustTree(t, `[
		{"nope": {}},
		{"if": {"run": [{"also_unknown": {}}]}},
		{"paralel": {"run": [{"a": 1, "b": 2}]}},
		{"paralel": {}}
	]`)
	err := Validate(reg, bad)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "$[0]")
	assert.Contains(t, msg, `"nope"`)
	assert.Contains(t, msg, "condition is required")
	assert.Contains(t, msg, "$[1].if.run[0]")
	assert.Contains(t, msg, "$[2].paralel.run[0]")
	assert.Contains(t, msg, "run is required")
	assert.True(t, IsConfiguration(err))
}
