package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		expr string
		want Condition
	}{
		{"a == b", Condition{"a", OpEqual, "b"}},
		{"a==b", Condition{"a", OpEqual, "b"}},
		{"1.2 >= 1.10", Condition{"1.2", OpGreaterEq, "1.10"}},
		{"x<=y", Condition{"x", OpLessEq, "y"}},
		{"x != y", Condition{"x", OpNotEqual, "y"}},
		{"x < y", Condition{"x", OpLess, "y"}},
		{"x > y", Condition{"x", OpGreater, "y"}},
		{"hello world contains lo w", Condition{"hello world", OpContains, "lo w"}},
		{"abc !contains b", Condition{"abc", OpNotContains, "b"}},
		{"  padded   ==   value  ", Condition{"padded", OpEqual, "value"}},
		// The earliest operator in the text wins, even inside a word.
		{"mycontainsfoo == mycontainsfoo", Condition{"my", OpContains, "foo == mycontainsfoo"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseCondition(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConditionInvalid(t *testing.T) {
	for _, expr := range []string{"", "just words", "== b", "a =="} {
		_, err := ParseCondition(expr)
		require.Error(t, err, expr)
		assert.Equal(t, ErrCodeInvalidCondition, CodeOf(err), expr)
	}
}

func TestConditionUnknownOperatorIsInternal(t *testing.T) {
	_, err := Condition{LHS: "a", Operator: "~", RHS: "b"}.Evaluate()
	require.Error(t, err)
	assert.True(t, IsInternal(err))
	assert.Equal(t, ErrCodeInternal, CodeOf(err))
}

func TestConditionEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"a == a", true},
		{"a == b", false},
		{"a != b", true},
		{"10 < 9", true},
		{"b > a", true},
		{"a >= a", true},
		{"a <= b", true},
		{"abc contains b", true},
		{"abc !contains b", false},
		{"abc !contains z", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			c, err := ParseCondition(tt.expr)
			require.NoError(t, err)
			got, err := c.Evaluate()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditionalBranches(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		want      []string
	}{
		{"then branch", "%V% == yes", []string{"then:install"}},
		{"else branch", "%V% == no", []string{"else:install"}},
		{"not contains takes else", "abc !contains b", []string{"else:install"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestSession(t)
			s.Vars.Set("V", "yes")

			tree := mustTree(t, `[{"if": {
				"condition": "`+tt.condition+`",
				"run":  [{"probe": {"name": "then"}}],
				"else": [{"probe": {"name": "else"}}]
			}}]`)

			ok, err := s.Render(context.Background(), tree, ActionInstall)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, p.Calls())
		})
	}
}

func TestConditionalMissingBranchSucceeds(t *testing.T) {
	s, p := newTestSession(t)
	tree := mustTree(t, `[{"if": {"condition": "a == b", "run": [{"probe": {"name": "then"}}]}}]`)

	ok, err := s.Render(context.Background(), tree, ActionInstall)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, p.Calls())
}

func TestConditionalPropagatesBranchResult(t *testing.T) {
	s, p := newTestSession(t)
	tree := mustTree(t, `[
		{"if": {"condition": "a == a", "run": [{"probe": {"name": "x", "result": false}}]}},
		{"probe": {"name": "after"}}
	]`)

	ok, err := s.Render(context.Background(), tree, ActionUninstall)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"x:uninstall"}, p.Calls())
}

func TestConditionalErrors(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.Render(context.Background(), mustTree(t, `[{"if": {"condition": "nonsense"}}]`), ActionInstall)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidCondition, CodeOf(err))

	_, err = s.Render(context.Background(), mustTree(t, `[{"if": {"run": []}}]`), ActionInstall)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidPayload, CodeOf(err))
}
