package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/quicksetup/pkg/handlers"
	"github.com/openfroyo/quicksetup/pkg/stores"
)

type recordingRunner struct {
	mu    sync.Mutex
	lines []string
	fail  string
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) (int, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
	if r.fail != "" && strings.Contains(line, r.fail) {
		return 1, nil
	}
	return 0, nil
}

type harness struct {
	runner *recordingRunner
	stdout bytes.Buffer
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("QUICKSETUP_HISTORY_PATH", filepath.Join(dir, "history.db"))
	t.Setenv("QUICKSETUP_LOG_LEVEL", "error")
	return &harness{runner: &recordingRunner{}, dir: dir}
}

func (h *harness) writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (h *harness) run(args ...string) error {
	h.stdout.Reset()
	return Execute(context.Background(), Options{
		Version: "test",
		Env:     handlers.Env{Runner: h.runner, Hive: handlers.NewMemoryHive(), GOOS: "linux"},
		Argv:    append([]string{"quicksetup"}, args...),
		Stdout:  &h.stdout,
		Stderr:  &bytes.Buffer{},
	}, args)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitUsage, ExitCode(errors.New("unknown flag: --bogus")))
	assert.Equal(t, ExitConfig, ExitCode(exitErr(ExitConfig, errors.New("bad"))))

	wrapped := errors.Join(errors.New("context"), exitErr(ExitRun, nil))
	assert.Equal(t, ExitRun, ExitCode(wrapped))
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)
	path := h.writeConfig(t, "setup.json", `[]`)

	tests := map[string][]string{
		"no action":        {path},
		"two actions":      {"--install", "--update", path},
		"no config":        {"--install"},
		"two configs":      {"--install", path, path},
		"unknown flag":     {"--install", "--bogus", path},
		"validate no args": {"validate"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			err := h.run(args...)
			require.Error(t, err)
			assert.Equal(t, ExitUsage, ExitCode(err))
		})
	}
	assert.Empty(t, h.runner.lines)
}

func TestInstallEndToEnd(t *testing.T) {
	h := newHarness(t)
	path := h.writeConfig(t, "setup.json", `[
		{"set_var": {"key": "GREETING", "value": "hello"}},
		{"exec": {"install_run": "echo %GREETING%", "uninstall_run": "echo bye"}}
	]`)

	require.NoError(t, h.run("--install", path))
	assert.Equal(t, []string{"sh -c echo hello"}, h.runner.lines)
}

func TestActionSelection(t *testing.T) {
	h := newHarness(t)
	path := h.writeConfig(t, "setup.json", `[
		{"exec": {"install_run": "echo in", "uninstall_run": "echo out", "update_run": "echo up"}}
	]`)

	require.NoError(t, h.run("--uninstall", path))
	require.NoError(t, h.run("--update", path))
	assert.Equal(t, []string{"sh -c echo out", "sh -c echo up"}, h.runner.lines)
}

func TestReservedVariables(t *testing.T) {
	h := newHarness(t)
	path := h.writeConfig(t, "setup.json", `[
		{"exec": {"install_run": "echo %CONF_DIR%"}},
		{"exec": {"install_run": "echo %CMD%"}}
	]`)
	canonical, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)

	require.NoError(t, h.run("--install", path))
	require.Len(t, h.runner.lines, 2)
	assert.Equal(t, "sh -c echo "+filepath.Dir(canonical)+string(os.PathSeparator), h.runner.lines[0])
	assert.Equal(t, `sh -c echo "quicksetup" "--install" "`+canonical+`"`, h.runner.lines[1])
}

func TestIncludeRelativeToConfigDir(t *testing.T) {
	h := newHarness(t)
	h.writeConfig(t, "common.json", `[{"exec": {"install_run": "echo common"}}]`)
	path := h.writeConfig(t, "setup.json", `[
		{"include": {"config_path": "common.json"}},
		{"include": {"config_path": "%CONF_DIR%common.json"}}
	]`)

	require.NoError(t, h.run("--install", path))
	assert.Equal(t, []string{"sh -c echo common"}, h.runner.lines)
}

func TestRunFailures(t *testing.T) {
	h := newHarness(t)

	t.Run("missing config", func(t *testing.T) {
		err := h.run("--install", filepath.Join(h.dir, "absent.json"))
		assert.Equal(t, ExitConfig, ExitCode(err))
	})

	t.Run("malformed json", func(t *testing.T) {
		path := h.writeConfig(t, "broken.json", `[{"exec": `)
		err := h.run("--install", path)
		assert.Equal(t, ExitConfig, ExitCode(err))
	})

	t.Run("soft failure halts", func(t *testing.T) {
		h.runner.fail = "first"
		defer func() { h.runner.fail = "" }()
		path := h.writeConfig(t, "soft.json", `[
			{"exec": {"install_run": "echo first"}},
			{"exec": {"install_run": "echo second"}}
		]`)

		err := h.run("--install", path)
		assert.Equal(t, ExitRun, ExitCode(err))
		assert.NotContains(t, h.runner.lines, "sh -c echo second")
	})

	t.Run("unknown tag", func(t *testing.T) {
		path := h.writeConfig(t, "unknown.json", `[{"reboot": {}}]`)
		err := h.run("--install", path)
		assert.Equal(t, ExitRun, ExitCode(err))
	})

	t.Run("bad settings", func(t *testing.T) {
		path := h.writeConfig(t, "ok.json", `[]`)
		settings := h.writeConfig(t, "settings.yaml", "parallel:\n  max_parallel: -1\n")
		err := h.run("--install", path, "--settings", settings)
		assert.Equal(t, ExitStartup, ExitCode(err))
	})
}

func TestValidateCommand(t *testing.T) {
	h := newHarness(t)

	good := h.writeConfig(t, "good.json", `[
		{"if": {"condition": "a == a", "run": [{"exec": {}}], "else": []}},
		{"paralel": {"run": [{"dir": {"path": "x"}}]}}
	]`)
	require.NoError(t, h.run("validate", good))
	assert.Contains(t, h.stdout.String(), "2 top-level nodes, ok")

	bad := h.writeConfig(t, "bad.json", `[
		{"paralel": {"run": [{"reboot": {}}]}},
		{"exec": {}, "dir": {}}
	]`)
	err := h.run("validate", bad)
	require.Error(t, err)
	assert.Equal(t, ExitConfig, ExitCode(err))
	assert.Contains(t, err.Error(), "$[0].paralel.run[0]")
	assert.Contains(t, err.Error(), "$[1]")

	err = h.run("validate", filepath.Join(h.dir, "absent.json"))
	assert.Equal(t, ExitConfig, ExitCode(err))

	assert.Empty(t, h.runner.lines, "validate never runs commands")
}

func TestHistoryCommand(t *testing.T) {
	h := newHarness(t)
	ok := h.writeConfig(t, "ok.json", `[{"exec": {"install_run": "echo ok"}}]`)
	soft := h.writeConfig(t, "soft.json", `[{"exec": {"update_run": "echo nope"}}]`)
	h.runner.fail = "nope"

	require.NoError(t, h.run("--install", ok))
	require.Error(t, h.run("--update", soft))

	require.NoError(t, h.run("history", "--json"))
	var runs []*stores.Run
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &runs))
	require.Len(t, runs, 2)

	byAction := map[string]*stores.Run{}
	for _, r := range runs {
		byAction[r.Action] = r
	}
	assert.Equal(t, stores.RunStatusSucceeded, byAction["install"].Status)
	assert.Equal(t, stores.RunStatusFailed, byAction["update"].Status)
	assert.NotNil(t, byAction["update"].CompletedAt)

	require.NoError(t, h.run("history", "--limit", "1"))
	out := h.stdout.String()
	assert.Contains(t, out, "STATUS")
	assert.Equal(t, 2, strings.Count(out, "\n"), "header and one run")
}

func TestHistoryEmpty(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("history"))
	assert.Contains(t, h.stdout.String(), "No runs recorded.")
}
