package engine

import (
	"context"
	"errors"

	"github.com/openfroyo/quicksetup/pkg/telemetry"
)

// Render executes the nodes of tree in order for action.
//
// The first node returning false stops the sequence and Render returns
// false; later siblings are never started. A hard error from any node
// aborts the sequence and is returned as is. An empty tree succeeds.
func (s *Session) Render(ctx context.Context, tree Tree, action ActionType) (bool, error) {
	for i, raw := range tree {
		node, err := ParseNode(raw)
		if err != nil {
			var e *Error
			if errors.As(err, &e) {
				e.WithDetail("index", i)
			}
			return false, err
		}

		ok, err := s.executeNode(ctx, node, action)
		if err != nil {
			return false, err
		}
		if !ok {
			s.logger.Warn().
				Str("tag", node.Tag).
				Int("index", i).
				Int("skipped", len(tree)-i-1).
				Msg("Command failed, halting sequence")
			return false, nil
		}
	}
	return true, nil
}

// executeNode resolves and runs a single node with its telemetry.
func (s *Session) executeNode(ctx context.Context, node Node, action ActionType) (bool, error) {
	cmd, err := s.Registry.Lookup(node.Tag)
	if err != nil {
		return false, err
	}

	ctx, span := s.tracer.StartCommandSpan(ctx, node.Tag, action.String())
	defer span.End()

	timer := telemetry.NewTimer()
	s.logger.Debug().Str("tag", node.Tag).Str("action", action.String()).Msg("Executing command")

	ok, err := cmd.Execute(ctx, s, node.Payload, action)
	duration := timer.Duration()

	outcome := telemetry.OutcomeOK
	switch {
	case err != nil:
		outcome = telemetry.OutcomeError
		var e *Error
		if errors.As(err, &e) && e.Tag == "" {
			e.WithTag(node.Tag)
		}
		telemetry.RecordError(span, err)
		s.logger.Error().Err(err).Str("tag", node.Tag).Dur("duration", duration).Msg("Command aborted")
	case !ok:
		outcome = telemetry.OutcomeSoftFail
		telemetry.RecordOutcome(span, false)
	default:
		telemetry.RecordOutcome(span, true)
		s.logger.Debug().Str("tag", node.Tag).Dur("duration", duration).Msg("Command completed")
	}

	s.metrics.RecordCommand(node.Tag, outcome, duration)
	s.events.PublishCommand(s.RunID, node.Tag, ok && err == nil, err, duration)

	return ok, err
}
