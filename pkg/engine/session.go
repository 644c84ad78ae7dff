package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openfroyo/quicksetup/pkg/telemetry"
)

// Session is the shared state of one run: the variable store, the set of
// already included files, the command registry and telemetry. It is passed
// explicitly to every command; nothing lives in package globals, so tests
// can build as many isolated sessions as they need.
type Session struct {
	// Vars is the flat variable namespace of the run.
	Vars *Vars

	// Includes records every config file already rendered.
	Includes *IncludeSet

	// Registry resolves node tags to commands.
	Registry *Registry

	// RunID identifies the run in logs, traces and history.
	RunID string

	// MaxParallel bounds the children a parallel node runs at once when the
	// node does not set max_parallel itself. Zero means unbounded.
	MaxParallel int

	logger  zerolog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	events  *telemetry.EventPublisher
}

// Option configures a Session.
type Option func(*Session)

// WithTelemetry wires logging, metrics, tracing and events from tel.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(s *Session) {
		if tel == nil {
			return
		}
		if tel.Logger != nil {
			s.logger = tel.Logger.NewComponentLogger("engine").Zerolog()
		}
		s.metrics = tel.Metrics
		if tel.Tracer != nil {
			s.tracer = tel.Tracer
		}
		s.events = tel.Events
	}
}

// WithLogger overrides the session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRunID sets the run identifier instead of generating one.
func WithRunID(runID string) Option {
	return func(s *Session) {
		s.RunID = runID
	}
}

// WithMaxParallel sets the default bound for parallel nodes.
func WithMaxParallel(n int) Option {
	return func(s *Session) {
		s.MaxParallel = n
	}
}

// WithVars uses an existing variable store.
func WithVars(vars *Vars) Option {
	return func(s *Session) {
		s.Vars = vars
	}
}

// NewSession creates a session around registry.
func NewSession(registry *Registry, opts ...Option) *Session {
	s := &Session{
		Vars:     NewVars(),
		Includes: NewIncludeSet(),
		Registry: registry,
		RunID:    uuid.New().String(),
		logger:   zerolog.Nop(),
		tracer:   telemetry.NoopTracer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("run_id", s.RunID).Logger()
	return s
}

// Logger returns the session logger for commands to use.
func (s *Session) Logger() *zerolog.Logger {
	return &s.logger
}

// Metrics returns the session metrics; may be nil.
func (s *Session) Metrics() *telemetry.Metrics {
	return s.metrics
}

// Expand expands placeholders in text against the session variables and
// logs a warning for every placeholder that stays unresolved.
func (s *Session) Expand(text string) string {
	out, misses := Expand(s.Vars, text)
	for _, name := range misses {
		s.logger.Warn().Str("placeholder", name).Msg("failed to find variable for placeholder, leaving it unchanged")
		s.metrics.RecordTemplateMiss()
	}
	return out
}

// Run renders the root tree of a config file and records run-level
// telemetry around it.
func (s *Session) Run(ctx context.Context, tree Tree, action ActionType, configPath string) (bool, error) {
	timer := telemetry.NewTimer()

	ctx, span := s.tracer.StartRunSpan(ctx, s.RunID, configPath, action.String())
	defer span.End()

	s.logger.Info().
		Str("config", configPath).
		Str("action", action.String()).
		Int("nodes", len(tree)).
		Msg("Starting run")
	s.events.PublishRunStarted(s.RunID, configPath, action.String())

	ok, err := s.Render(ctx, tree, action)
	duration := timer.Duration()

	status := telemetry.RunStatusSucceeded
	switch {
	case err != nil:
		status = telemetry.RunStatusAborted
		telemetry.RecordError(span, err)
	case !ok:
		status = telemetry.RunStatusFailed
		telemetry.RecordOutcome(span, false)
	default:
		telemetry.RecordOutcome(span, true)
	}

	s.metrics.RecordRunCompleted(action.String(), status, duration)
	s.events.PublishRunFinished(s.RunID, ok, err, duration)

	s.logger.Info().
		Str("status", status).
		Dur("duration", duration).
		Msg("Run finished")

	return ok, err
}

// PrepareHost sets the reserved variables for a root config file: the
// canonical config directory and the quoted command line, in which the
// config argument is replaced by its canonical path.
func (s *Session) PrepareHost(configPath string, argv []string) error {
	canonical, err := canonicalPath(configPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %q: %w", configPath, err)
	}

	dir := filepath.Dir(canonical)
	if !strings.HasSuffix(dir, string(os.PathSeparator)) {
		dir += string(os.PathSeparator)
	}
	s.Vars.Set(VarConfigDir, dir)
	s.Vars.Set(VarCommandLine, QuoteCommandLine(argv, configPath, canonical))
	return nil
}

// QuoteCommandLine wraps every argument in double quotes and joins them
// with spaces. The last argument equal to rawPath is replaced by canonical.
func QuoteCommandLine(argv []string, rawPath, canonical string) string {
	args := make([]string, len(argv))
	copy(args, argv)
	for i := len(args) - 1; i >= 0; i-- {
		if args[i] == rawPath {
			args[i] = canonical
			break
		}
	}

	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = `"` + arg + `"`
	}
	return strings.Join(quoted, " ")
}

// canonicalPath returns the absolute, symlink-resolved form of path.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
