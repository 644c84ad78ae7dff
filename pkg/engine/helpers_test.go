package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// probe is a test command that records each execution and returns a
// configurable outcome.
type probe struct {
	mu        sync.Mutex
	calls     []string
	active    atomic.Int32
	maxActive atomic.Int32
}

type probePayload struct {
	Name    string `json:"name" template:"expand"`
	Result  *bool  `json:"result"`
	Error   string `json:"error"`
	SleepMS int    `json:"sleep_ms"`
}

func (p *probe) Execute(_ context.Context, s *Session, payload json.RawMessage, action ActionType) (bool, error) {
	var pp probePayload
	if err := DecodePayload(s, "probe", payload, &pp); err != nil {
		return false, err
	}

	n := p.active.Add(1)
	for {
		cur := p.maxActive.Load()
		if n <= cur || p.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	defer p.active.Add(-1)

	if pp.SleepMS > 0 {
		time.Sleep(time.Duration(pp.SleepMS) * time.Millisecond)
	}

	p.mu.Lock()
	p.calls = append(p.calls, pp.Name+":"+action.String())
	p.mu.Unlock()

	if pp.Error != "" {
		return false, errors.New(pp.Error)
	}
	if pp.Result != nil {
		return *pp.Result, nil
	}
	return true, nil
}

func (p *probe) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// newTestSession returns a session with the builtins and a shared probe
// registered under "probe".
func newTestSession(t *testing.T, opts ...Option) (*Session, *probe) {
	t.Helper()

	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	p := &probe{}
	require.NoError(t, reg.Register("probe", func() Command { return p }))

	return NewSession(reg, opts...), p
}

// mustTree parses a JSON document into a tree.
func mustTree(t *testing.T, doc string) Tree {
	t.Helper()
	tree, err := ParseTree([]byte(doc))
	require.NoError(t, err)
	return tree
}

// writeConfig writes a config file under dir and returns its path.
func writeConfig(t *testing.T, dir, name, doc string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

// useConfigDir points CONF_DIR at dir the way the host does.
func useConfigDir(t *testing.T, s *Session, dir string) {
	t.Helper()
	canonical, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	s.Vars.Set(VarConfigDir, canonical+string(os.PathSeparator))
}
