package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelRunsAllChildren(t *testing.T) {
	s, p := newTestSession(t)
	tree := mustTree(t, `[{"paralel": {"run": [
		{"probe": {"name": "a", "sleep_ms": 20}},
		{"probe": {"name": "b", "sleep_ms": 20}},
		{"probe": {"name": "c", "sleep_ms": 20}}
	]}}]`)

	ok, err := s.Render(context.Background(), tree, ActionInstall)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{"a:install", "b:install", "c:install"}, p.Calls())
	assert.Greater(t, p.maxActive.Load(), int32(1), "children should overlap")
}

func TestParallelFailureDoesNotCancelSiblings(t *testing.T) {
	s, p := newTestSession(t)
	tree := mustTree(t, `[
		{"paralel": {"run": [
			{"probe": {"name": "fast-fail", "result": false}},
			{"probe": {"name": "slow", "sleep_ms": 50}}
		]}},
		{"probe": {"name": "after"}}
	]`)

	ok, err := s.Render(context.Background(), tree, ActionInstall)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"fast-fail:install", "slow:install"}, p.Calls())
}

func TestParallelHardErrorWinsAfterJoin(t *testing.T) {
	s, p := newTestSession(t)
	tree := mustTree(t, `[{"paralel": {"run": [
		{"probe": {"name": "ok", "sleep_ms": 30}},
		{"probe": {"name": "soft", "result": false}},
		{"probe": {"name": "hard1", "error": "first"}},
		{"probe": {"name": "hard2", "error": "second"}}
	]}}]`)

	ok, err := s.Render(context.Background(), tree, ActionInstall)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "parallel task 2")
	assert.Contains(t, err.Error(), "first")
	assert.Len(t, p.Calls(), 4)
}

func TestParallelPreservesErrorClass(t *testing.T) {
	s, _ := newTestSession(t)
	tree := mustTree(t, `[{"paralel": {"run": [{"if": {"condition": "no operator here"}}]}}]`)

	_, err := s.Render(context.Background(), tree, ActionInstall)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel task 0")
	assert.True(t, IsConfiguration(err))
	assert.Equal(t, ErrCodeInvalidCondition, CodeOf(err))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, TagConditional, e.Tag)
}

func TestParallelMalformedChildRejectedBeforeStart(t *testing.T) {
	s, p := newTestSession(t)
	tree := mustTree(t, `[{"paralel": {"run": [
		{"probe": {"name": "a"}},
		{"probe": {"name": "b"}, "set_var": {"key": "k", "value": "v"}}
	]}}]`)

	_, err := s.Render(context.Background(), tree, ActionInstall)
	require.Error(t, err)
	assert.Equal(t, ErrCodeMalformedNode, CodeOf(err))
	assert.Empty(t, p.Calls())
}

func TestParallelUnknownTagRejectedBeforeStart(t *testing.T) {
	s, p := newTestSession(t)
	tree := mustTree(t, `[{"paralel": {"run": [
		{"probe": {"name": "a"}},
		{"nope": {}}
	]}}]`)

	_, err := s.Render(context.Background(), tree, ActionInstall)
	require.Error(t, err)
	assert.True(t, IsConfiguration(err))
	assert.Equal(t, ErrCodeUnknownTag, CodeOf(err))
	assert.Empty(t, p.Calls())
}

func TestParallelEmptyAndMissingRun(t *testing.T) {
	s, _ := newTestSession(t)

	ok, err := s.Render(context.Background(), mustTree(t, `[{"paralel": {"run": []}}]`), ActionInstall)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Render(context.Background(), mustTree(t, `[{"paralel": {}}]`), ActionInstall)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidPayload, CodeOf(err))

	_, err = s.Render(context.Background(), mustTree(t, `[{"paralel": {"run": {"probe": {}}}}]`), ActionInstall)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidPayload, CodeOf(err))
}

func TestParallelMaxParallel(t *testing.T) {
	s, p := newTestSession(t)
	tree := mustTree(t, `[{"paralel": {"max_parallel": 1, "run": [
		{"probe": {"name": "a", "sleep_ms": 10}},
		{"probe": {"name": "b", "sleep_ms": 10}},
		{"probe": {"name": "c", "sleep_ms": 10}}
	]}}]`)

	ok, err := s.Render(context.Background(), tree, ActionInstall)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, p.Calls(), 3)
	assert.Equal(t, int32(1), p.maxActive.Load())
}

func TestParallelSessionDefaultLimit(t *testing.T) {
	s, p := newTestSession(t, WithMaxParallel(2))
	tree := mustTree(t, `[{"paralel": {"run": [
		{"probe": {"name": "a", "sleep_ms": 10}},
		{"probe": {"name": "b", "sleep_ms": 10}},
		{"probe": {"name": "c", "sleep_ms": 10}},
		{"probe": {"name": "d", "sleep_ms": 10}}
	]}}]`)

	ok, err := s.Render(context.Background(), tree, ActionInstall)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.LessOrEqual(t, p.maxActive.Load(), int32(2))
}

func TestParallelChildrenShareVariables(t *testing.T) {
	s, _ := newTestSession(t)
	tree := mustTree(t, `[{"paralel": {"run": [
		{"set_var": {"key": "A", "value": "1"}},
		{"set_var": {"key": "B", "value": 2}}
	]}}]`)

	ok, err := s.Render(context.Background(), tree, ActionInstall)
	require.NoError(t, err)
	assert.True(t, ok)

	a, _ := s.Vars.GetString("A")
	b, _ := s.Vars.GetUint("B")
	assert.Equal(t, "1", a)
	assert.Equal(t, uint64(2), b)
}
