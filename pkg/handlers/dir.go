package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/openfroyo/quicksetup/pkg/engine"
)

const TagDir = "dir"

type dirPayload struct {
	Path            string `json:"path" validate:"required" template:"expand"`
	ShouldOverwrite bool   `json:"should_overwrite"`
}

// DirCommand creates a directory tree on install, optionally removing an
// existing one first. Other actions do nothing.
type DirCommand struct{}

// Execute implements engine.Command.
func (c *DirCommand) Execute(_ context.Context, s *engine.Session, payload json.RawMessage, action engine.ActionType) (bool, error) {
	var p dirPayload
	if err := engine.DecodePayload(s, TagDir, payload, &p); err != nil {
		return false, err
	}
	if action != engine.ActionInstall {
		return true, nil
	}

	if p.ShouldOverwrite {
		if err := os.RemoveAll(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.Logger().Warn().Err(err).Str("path", p.Path).Msg("Failed to remove directory")
			return false, nil
		}
	}

	if err := os.MkdirAll(p.Path, 0o755); err != nil {
		s.Logger().Warn().Err(err).Str("path", p.Path).Msg("Failed to create directory")
		return false, nil
	}

	s.Logger().Debug().Str("path", p.Path).Msg("Directory ready")
	return true, nil
}
