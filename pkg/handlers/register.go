package handlers

import (
	"github.com/openfroyo/quicksetup/pkg/engine"
)

// Register installs the complete command set into reg: the engine builtins
// and every leaf command bound to env.
func Register(reg *engine.Registry, env Env) error {
	if err := engine.RegisterBuiltins(reg); err != nil {
		return err
	}

	leaves := []struct {
		tag     string
		factory engine.Factory
	}{
		{TagExec, func() engine.Command { return &ExecCommand{env: env} }},
		{TagPS1, func() engine.Command { return &PS1Command{env: env} }},
		{TagWinget, func() engine.Command { return &WingetCommand{env: env} }},
		{TagVcpkg, func() engine.Command { return &VcpkgCommand{env: env} }},
		{TagDir, func() engine.Command { return &DirCommand{} }},
		{TagRegUpdate, func() engine.Command { return &SetRegValueCommand{tag: TagRegUpdate, env: env} }},
		{TagSetRegVal, func() engine.Command { return &SetRegValueCommand{tag: TagSetRegVal, env: env} }},
		{TagGetRegVal, func() engine.Command { return &GetRegValueCommand{env: env} }},
		{TagDeleteRegKey, func() engine.Command { return &DeleteRegKeyCommand{env: env} }},
	}
	for _, leaf := range leaves {
		if err := reg.Register(leaf.tag, leaf.factory); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the complete command set.
func NewRegistry(env Env) (*engine.Registry, error) {
	reg := engine.NewRegistry()
	if err := Register(reg, env); err != nil {
		return nil, err
	}
	return reg, nil
}
