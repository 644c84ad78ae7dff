package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// TagInclude is the tag of the include command.
const TagInclude = "include"

// IncludeSet holds the canonical paths of every config file already
// included during a run. It only grows.
type IncludeSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewIncludeSet creates an empty set.
func NewIncludeSet() *IncludeSet {
	return &IncludeSet{paths: make(map[string]struct{})}
}

// Claim inserts path and reports whether it was absent. The check and the
// insert happen under one lock, so two concurrent claims of the same path
// cannot both succeed.
func (is *IncludeSet) Claim(path string) bool {
	is.mu.Lock()
	defer is.mu.Unlock()
	if _, seen := is.paths[path]; seen {
		return false
	}
	is.paths[path] = struct{}{}
	return true
}

// Contains reports whether path was claimed.
func (is *IncludeSet) Contains(path string) bool {
	is.mu.Lock()
	defer is.mu.Unlock()
	_, ok := is.paths[path]
	return ok
}

// Paths returns the claimed paths in sorted order.
func (is *IncludeSet) Paths() []string {
	is.mu.Lock()
	defer is.mu.Unlock()
	out := make([]string, 0, len(is.paths))
	for p := range is.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type includePayload struct {
	ConfigPath string `json:"config_path" validate:"required" template:"expand"`
}

// IncludeCommand renders another config file with the same action, at most
// once per run. Repeat includes of a file succeed without doing anything.
type IncludeCommand struct{}

// Execute implements Command.
func (IncludeCommand) Execute(ctx context.Context, s *Session, payload json.RawMessage, action ActionType) (bool, error) {
	var p includePayload
	if err := DecodePayload(s, TagInclude, payload, &p); err != nil {
		return false, err
	}

	path, err := s.resolveInclude(p.ConfigPath)
	if err != nil {
		return false, err
	}

	if !s.Includes.Claim(path) {
		s.logger.Debug().Str("path", path).Msg("Config already included, skipping")
		s.metrics.RecordInclude(true)
		s.events.PublishIncludeSkipped(s.RunID, path)
		return true, nil
	}
	s.metrics.RecordInclude(false)

	tree, err := LoadTree(path)
	if err != nil {
		return false, err
	}

	s.logger.Info().Str("path", path).Int("nodes", len(tree)).Msg("Including config")
	return s.Render(ctx, tree, action)
}

// resolveInclude turns a config_path into a canonical file path. Paths that
// are not absolute existing files are taken relative to CONF_DIR.
func (s *Session) resolveInclude(path string) (string, error) {
	resolved := path
	if !filepath.IsAbs(path) || !isRegularFile(path) {
		base, ok := s.Vars.GetString(VarConfigDir)
		if !ok {
			return "", NewConfigurationError(
				fmt.Sprintf("cannot resolve include %q: %s is not set", path, VarConfigDir), nil).
				WithTag(TagInclude).
				WithCode(ErrCodeIncludeBaseDir)
		}
		resolved = filepath.Join(base, path)
	}

	canonical, err := canonicalPath(resolved)
	if err != nil {
		return "", NewConfigurationError(fmt.Sprintf("cannot resolve include %q", path), err).
			WithTag(TagInclude).
			WithCode(ErrCodeIncludeLoad).
			WithDetail("path", resolved)
	}
	return canonical, nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
