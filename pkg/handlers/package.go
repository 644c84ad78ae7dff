package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openfroyo/quicksetup/pkg/engine"
)

const (
	TagWinget = "winget"
	TagVcpkg  = "vcpkg"
)

// RefreshEnvPrelude reloads the environment through the chocolatey profile
// so tools installed earlier in the run are on PATH.
const RefreshEnvPrelude = `Set-ExecutionPolicy Bypass -Scope Process; Import-Module $env:ProgramData\chocolatey\helpers\chocolateyProfile.psm1;refreshenv;`

type wingetPayload struct {
	Package string `json:"package" validate:"required" template:"expand"`
}

// WingetCommand installs, removes or updates a winget package.
type WingetCommand struct {
	env Env
}

// Execute implements engine.Command. The exit status of winget is ignored.
func (c *WingetCommand) Execute(ctx context.Context, s *engine.Session, payload json.RawMessage, action engine.ActionType) (bool, error) {
	var p wingetPayload
	if err := engine.DecodePayload(s, TagWinget, payload, &p); err != nil {
		return false, err
	}

	if c.env.goos() != "windows" {
		return false, engine.NewExternalError("winget is only available on windows", nil).
			WithTag(TagWinget).
			WithCode(engine.ErrCodeUnsupported)
	}

	verb := engine.Select(action, "install", "uninstall", "update")
	line := fmt.Sprintf("winget %s --accept-package-agreements %s", verb, p.Package)
	s.Logger().Info().Str("command", line).Msg("Executing winget")

	name, args := c.env.shellCommand(line)
	if _, err := c.env.Runner.Run(ctx, name, args...); err != nil {
		return false, engine.NewExternalError("failed to start winget", err).
			WithTag(TagWinget).
			WithCode(engine.ErrCodeOSFailure)
	}
	return true, nil
}

type vcpkgPayload struct {
	Module string `json:"module" validate:"required" template:"expand"`
}

// VcpkgCommand installs, removes or upgrades a vcpkg port.
type VcpkgCommand struct {
	env Env
}

// Execute implements engine.Command.
func (c *VcpkgCommand) Execute(ctx context.Context, s *engine.Session, payload json.RawMessage, action engine.ActionType) (bool, error) {
	var p vcpkgPayload
	if err := engine.DecodePayload(s, TagVcpkg, payload, &p); err != nil {
		return false, err
	}

	verb := engine.Select(action, "install", "uninstall", "upgrade")
	line := fmt.Sprintf("vcpkg %s %s", verb, p.Module)
	s.Logger().Info().Str("command", line).Msg("Executing vcpkg")

	code, err := c.env.Runner.Run(ctx, "powershell", "-Command", RefreshEnvPrelude, line)
	if err != nil {
		s.Logger().Warn().Err(err).Msg("Failed to start powershell")
		return false, nil
	}
	if code != 0 {
		s.Logger().Warn().Int("exit_code", code).Str("module", p.Module).Msg("vcpkg failed")
		return false, nil
	}
	return true, nil
}
