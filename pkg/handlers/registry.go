package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openfroyo/quicksetup/pkg/engine"
)

const (
	TagRegUpdate    = "reg_update"
	TagSetRegVal    = "set_reg_val"
	TagGetRegVal    = "get_reg_val"
	TagDeleteRegKey = "delete_reg_key"
)

type setRegPayload struct {
	RegPath string `json:"reg_path" validate:"required" template:"expand"`
	KeyName string `json:"key_name" validate:"required" template:"expand"`
	Value   string `json:"value" template:"expand"`
}

// SetRegValueCommand replaces a string value under HKEY_CURRENT_USER on
// install. It is registered as both reg_update and set_reg_val.
type SetRegValueCommand struct {
	tag string
	env Env
}

// Execute implements engine.Command.
func (c *SetRegValueCommand) Execute(_ context.Context, s *engine.Session, payload json.RawMessage, action engine.ActionType) (bool, error) {
	var p setRegPayload
	if err := engine.DecodePayload(s, c.tag, payload, &p); err != nil {
		return false, err
	}
	if action != engine.ActionInstall {
		return true, nil
	}

	if err := c.env.Hive.OpenForWrite(p.RegPath); err != nil {
		return false, registryError(c.tag, "failed to open registry key for writing", p.RegPath, p.KeyName, err)
	}

	if err := c.env.Hive.DeleteValue(p.RegPath, p.KeyName); err != nil && !errors.Is(err, ErrNotFound) {
		s.Logger().Warn().Err(err).
			Str("reg_path", p.RegPath).
			Str("key_name", p.KeyName).
			Msg("Failed to delete registry value")
		return false, nil
	}

	if err := c.env.Hive.SetString(p.RegPath, p.KeyName, p.Value); err != nil {
		return false, registryError(c.tag, "failed to set registry value", p.RegPath, p.KeyName, err)
	}

	s.Logger().Debug().Str("reg_path", p.RegPath).Str("key_name", p.KeyName).Msg("Registry value set")
	return true, nil
}

type getRegPayload struct {
	RegPath    string `json:"reg_path" validate:"required" template:"expand"`
	KeyName    string `json:"key_name" validate:"required" template:"expand"`
	InstallKey string `json:"install_key" validate:"required" template:"expand"`
	CanFail    bool   `json:"can_fail"`
}

// GetRegValueCommand copies a registry value into a variable. String values
// are expanded before they are stored; DWORD values are stored as integers.
type GetRegValueCommand struct {
	env Env
}

// Execute implements engine.Command.
func (c *GetRegValueCommand) Execute(_ context.Context, s *engine.Session, payload json.RawMessage, _ engine.ActionType) (bool, error) {
	var p getRegPayload
	if err := engine.DecodePayload(s, TagGetRegVal, payload, &p); err != nil {
		return false, err
	}

	str, err := c.env.Hive.GetString(p.RegPath, p.KeyName)
	if err == nil {
		s.Vars.Set(p.InstallKey, s.Expand(str))
		return true, nil
	}

	n, err := c.env.Hive.GetDWORD(p.RegPath, p.KeyName)
	if err == nil {
		s.Vars.Set(p.InstallKey, int64(n))
		return true, nil
	}

	if p.CanFail {
		s.Logger().Warn().Err(err).
			Str("reg_path", p.RegPath).
			Str("key_name", p.KeyName).
			Msg("Failed to read registry value")
		return true, nil
	}
	return false, registryError(TagGetRegVal, "failed to read registry value", p.RegPath, p.KeyName, err)
}

type deleteRegPayload struct {
	RegPath string `json:"reg_path" validate:"required" template:"expand"`
	KeyName string `json:"key_name" validate:"required" template:"expand"`
}

// DeleteRegKeyCommand removes a value under HKEY_CURRENT_USER on install.
// A value or key that does not exist counts as removed.
type DeleteRegKeyCommand struct {
	env Env
}

// Execute implements engine.Command.
func (c *DeleteRegKeyCommand) Execute(_ context.Context, s *engine.Session, payload json.RawMessage, action engine.ActionType) (bool, error) {
	var p deleteRegPayload
	if err := engine.DecodePayload(s, TagDeleteRegKey, payload, &p); err != nil {
		return false, err
	}
	if action != engine.ActionInstall {
		return true, nil
	}

	if err := c.env.Hive.DeleteValue(p.RegPath, p.KeyName); err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, nil
		}
		return false, registryError(TagDeleteRegKey, "failed to delete registry value", p.RegPath, p.KeyName, err)
	}
	return true, nil
}

func registryError(tag, msg, path, name string, err error) *engine.Error {
	code := engine.ErrCodeOSFailure
	if errors.Is(err, ErrUnsupported) {
		code = engine.ErrCodeUnsupported
	}
	return engine.NewExternalError(fmt.Sprintf("%s %q (%s)", msg, name, path), err).
		WithTag(tag).
		WithCode(code).
		WithDetail("reg_path", path).
		WithDetail("key_name", name)
}
