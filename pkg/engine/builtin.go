package engine

// RegisterBuiltins registers the structural commands every config can use:
// if, paralel, include and set_var.
func RegisterBuiltins(reg *Registry) error {
	builtins := map[string]Factory{
		TagConditional: func() Command { return ConditionalCommand{} },
		TagParallel:    func() Command { return ParallelCommand{} },
		TagInclude:     func() Command { return IncludeCommand{} },
		TagSetVar:      func() Command { return SetVarCommand{} },
	}
	for tag, factory := range builtins {
		if err := reg.Register(tag, factory); err != nil {
			return err
		}
	}
	return nil
}
