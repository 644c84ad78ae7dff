package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// TagParallel is the tag of the parallel command. The spelling is the one
// config files use.
const TagParallel = "paralel"

type parallelPayload struct {
	Run         Tree `json:"run" validate:"required"`
	MaxParallel int  `json:"max_parallel" validate:"gte=0"`
}

// taskResult is the outcome of one parallel child.
type taskResult struct {
	ok  bool
	err error
}

// ParallelCommand renders every child of its run list concurrently, each as
// a one-node tree with the same action, and joins on all of them. Children
// are never cancelled: a failing sibling does not stop the others.
type ParallelCommand struct{}

// Execute implements Command.
func (ParallelCommand) Execute(ctx context.Context, s *Session, payload json.RawMessage, action ActionType) (bool, error) {
	var p parallelPayload
	if err := DecodePayload(s, TagParallel, payload, &p); err != nil {
		return false, err
	}

	// Reject malformed children and unknown tags before anything starts.
	for i, raw := range p.Run {
		node, err := ParseNode(raw)
		if err != nil {
			var e *Error
			if errors.As(err, &e) {
				e.WithTag(TagParallel).WithDetail("index", i)
			}
			return false, err
		}
		if !s.Registry.Has(node.Tag) {
			return false, NewConfigurationError(fmt.Sprintf("no command registered for tag %q", node.Tag), nil).
				WithTag(node.Tag).
				WithCode(ErrCodeUnknownTag).
				WithDetail("index", i)
		}
	}
	if len(p.Run) == 0 {
		return true, nil
	}

	limit := p.MaxParallel
	if limit == 0 {
		limit = s.MaxParallel
	}

	results := s.runChildren(ctx, p.Run, action, limit)
	return joinResults(s, results)
}

// runChildren starts one goroutine per child and waits for all of them.
// When limit is positive at most limit children render at once.
func (s *Session) runChildren(ctx context.Context, children Tree, action ActionType, limit int) []taskResult {
	results := make([]taskResult, len(children))

	var sem chan struct{}
	if limit > 0 && limit < len(children) {
		sem = make(chan struct{}, limit)
	}

	s.logger.Debug().Int("tasks", len(children)).Int("limit", limit).Msg("Starting parallel tasks")

	var wg sync.WaitGroup
	for i, raw := range children {
		wg.Add(1)
		go func(i int, raw json.RawMessage) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			s.metrics.ParallelTaskStarted()
			defer s.metrics.ParallelTaskFinished()

			ok, err := s.Render(ctx, Single(raw), action)
			results[i] = taskResult{ok: ok, err: err}
		}(i, raw)
	}
	wg.Wait()

	return results
}

// joinResults folds child outcomes: the lowest-index hard error wins,
// otherwise any false yields false.
func joinResults(s *Session, results []taskResult) (bool, error) {
	var firstErr error
	for i, r := range results {
		if r.err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("parallel task %d: %w", i, r.err)
			continue
		}
		s.logger.Error().Err(r.err).Int("index", i).Msg("Additional parallel task error")
	}
	if firstErr != nil {
		return false, firstErr
	}

	for i, r := range results {
		if !r.ok {
			s.logger.Warn().Int("index", i).Int("tasks", len(results)).Msg("Parallel task failed")
			return false, nil
		}
	}
	return true, nil
}
