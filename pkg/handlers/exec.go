package handlers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/openfroyo/quicksetup/pkg/engine"
)

const (
	TagExec = "exec"
	TagPS1  = "ps1"
)

// runPayload is shared by exec and ps1: one command line per action.
// Every field is optional; an empty line succeeds without running anything.
type runPayload struct {
	InstallRun   string `json:"install_run" template:"expand"`
	UninstallRun string `json:"uninstall_run" template:"expand"`
	UpdateRun    string `json:"update_run" template:"expand"`
}

func (p runPayload) forAction(action engine.ActionType) string {
	return engine.Select(action, p.InstallRun, p.UninstallRun, p.UpdateRun)
}

// ExecCommand runs a command line through the platform shell.
type ExecCommand struct {
	env Env
}

// Execute implements engine.Command.
func (c *ExecCommand) Execute(ctx context.Context, s *engine.Session, payload json.RawMessage, action engine.ActionType) (bool, error) {
	var p runPayload
	if err := engine.DecodePayload(s, TagExec, payload, &p); err != nil {
		return false, err
	}

	line := p.forAction(action)
	if line == "" {
		s.Logger().Debug().Str("action", action.String()).Msg("No command for action")
		return true, nil
	}

	s.Logger().Info().Str("command", line).Msg("Executing command")

	name, args := c.env.shellCommand(line)
	code, err := c.env.Runner.Run(ctx, name, args...)

	// winget exits non-zero when there is nothing to upgrade.
	if strings.HasPrefix(line, "winget") {
		return true, nil
	}
	if err != nil {
		s.Logger().Warn().Err(err).Str("command", line).Msg("Failed to start command")
		return false, nil
	}
	if code != 0 {
		s.Logger().Warn().Int("exit_code", code).Str("command", line).Msg("Command exited with failure")
		return false, nil
	}
	return true, nil
}
