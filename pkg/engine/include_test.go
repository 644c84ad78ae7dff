package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncludeRendersOnce(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "child.json", `[{"probe": {"name": "child"}}]`)

	s, p := newTestSession(t)
	useConfigDir(t, s, dir)

	tree := mustTree(t, `[
		{"include": {"config_path": "child.json"}},
		{"include": {"config_path": "child.json"}},
		{"include": {"config_path": "./child.json"}}
	]`)

	ok, err := s.Render(context.Background(), tree, ActionInstall)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"child:install"}, p.Calls())
	assert.Len(t, s.Includes.Paths(), 1)
}

func TestIncludeDiamond(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.json", `[{"include": {"config_path": "common/c.json"}}]`)
	writeConfig(t, dir, "b.json", `[{"include": {"config_path": "common/c.json"}}]`)
	writeConfig(t, dir, "common/c.json", `[{"probe": {"name": "c"}}]`)

	s, p := newTestSession(t)
	useConfigDir(t, s, dir)

	tree := mustTree(t, `[
		{"include": {"config_path": "a.json"}},
		{"include": {"config_path": "b.json"}}
	]`)

	ok, err := s.Render(context.Background(), tree, ActionUpdate)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"c:update"}, p.Calls())
}

func TestIncludeCycleTerminates(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.json", `[{"probe": {"name": "a"}}, {"include": {"config_path": "b.json"}}]`)
	writeConfig(t, dir, "b.json", `[{"probe": {"name": "b"}}, {"include": {"config_path": "a.json"}}]`)

	s, p := newTestSession(t)
	useConfigDir(t, s, dir)

	ok, err := s.Render(context.Background(), mustTree(t, `[{"include": {"config_path": "a.json"}}]`), ActionInstall)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a:install", "b:install"}, p.Calls())
}

func TestIncludeConcurrentClaims(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "shared.json", `[{"probe": {"name": "shared", "sleep_ms": 10}}]`)

	s, p := newTestSession(t)
	useConfigDir(t, s, dir)

	tree := mustTree(t, `[{"paralel": {"run": [
		{"include": {"config_path": "shared.json"}},
		{"include": {"config_path": "shared.json"}},
		{"include": {"config_path": "shared.json"}},
		{"include": {"config_path": "shared.json"}}
	]}}]`)

	ok, err := s.Render(context.Background(), tree, ActionInstall)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"shared:install"}, p.Calls())
}

func TestIncludeAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "abs.json", `[{"probe": {"name": "abs"}}]`)

	// No CONF_DIR needed for an absolute existing file.
	s, p := newTestSession(t)
	s.Vars.Set("ABS", path)

	ok, err := s.Render(context.Background(), mustTree(t, `[{"include": {"config_path": "%ABS%"}}]`), ActionInstall)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"abs:install"}, p.Calls())
}

func TestIncludeErrors(t *testing.T) {
	t.Run("missing base dir", func(t *testing.T) {
		s, _ := newTestSession(t)
		_, err := s.Render(context.Background(), mustTree(t, `[{"include": {"config_path": "x.json"}}]`), ActionInstall)
		require.Error(t, err)
		assert.True(t, IsConfiguration(err))
		assert.Equal(t, ErrCodeIncludeBaseDir, CodeOf(err))
	})

	t.Run("missing file", func(t *testing.T) {
		s, _ := newTestSession(t)
		useConfigDir(t, s, t.TempDir())
		_, err := s.Render(context.Background(), mustTree(t, `[{"include": {"config_path": "absent.json"}}]`), ActionInstall)
		require.Error(t, err)
		assert.Equal(t, ErrCodeIncludeLoad, CodeOf(err))
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "bad.json", `{"not": "an array"}`)
		s, _ := newTestSession(t)
		useConfigDir(t, s, dir)
		_, err := s.Render(context.Background(), mustTree(t, `[{"include": {"config_path": "bad.json"}}]`), ActionInstall)
		require.Error(t, err)
		assert.Equal(t, ErrCodeMalformedJSON, CodeOf(err))
	})

	t.Run("missing config_path", func(t *testing.T) {
		s, _ := newTestSession(t)
		_, err := s.Render(context.Background(), mustTree(t, `[{"include": {}}]`), ActionInstall)
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidPayload, CodeOf(err))
	})
}

func TestIncludeSymlinkResolvesToSameFile(t *testing.T) {
	dir := t.TempDir()
	target := writeConfig(t, dir, "real.json", `[{"probe": {"name": "real"}}]`)
	if err := os.Symlink(target, filepath.Join(dir, "link.json")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s, p := newTestSession(t)
	useConfigDir(t, s, dir)

	tree := mustTree(t, `[
		{"include": {"config_path": "link.json"}},
		{"include": {"config_path": "real.json"}}
	]`)
	ok, err := s.Render(context.Background(), tree, ActionInstall)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"real:install"}, p.Calls())
}

func TestIncludeSetClaim(t *testing.T) {
	set := NewIncludeSet()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if set.Claim("/same") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.True(t, set.Contains("/same"))
	assert.False(t, set.Contains("/other"))
}
