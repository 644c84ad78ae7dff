package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mattn/go-shellwords"

	"github.com/openfroyo/quicksetup/pkg/engine"
)

// PS1Command runs a command line through powershell -Command after
// splitting it into words.
type PS1Command struct {
	env Env
}

// Execute implements engine.Command.
func (c *PS1Command) Execute(ctx context.Context, s *engine.Session, payload json.RawMessage, action engine.ActionType) (bool, error) {
	var p runPayload
	if err := engine.DecodePayload(s, TagPS1, payload, &p); err != nil {
		return false, err
	}

	line := p.forAction(action)
	if line == "" {
		return true, nil
	}

	words, err := shellwords.Parse(line)
	if err != nil {
		return false, engine.NewConfigurationError(fmt.Sprintf("failed to parse command line %q", line), err).
			WithTag(TagPS1).
			WithCode(engine.ErrCodeInvalidPayload)
	}
	if len(words) == 0 {
		return true, nil
	}

	s.Logger().Info().Str("command", line).Msg("Executing powershell command")

	args := append([]string{"-Command"}, words...)
	code, err := c.env.Runner.Run(ctx, "powershell", args...)
	if err != nil {
		s.Logger().Warn().Err(err).Msg("Failed to start powershell")
		return false, nil
	}
	return code == 0, nil
}
