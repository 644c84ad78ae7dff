package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/quicksetup/pkg/telemetry"
)

// Settings is the root of the settings file.
type Settings struct {
	// Logging configures the zerolog output.
	Logging LoggingSettings `yaml:"logging" toml:"logging"`

	// Metrics configures the Prometheus textfile export.
	Metrics MetricsSettings `yaml:"metrics" toml:"metrics"`

	// Tracing configures the OpenTelemetry exporter.
	Tracing TracingSettings `yaml:"tracing" toml:"tracing"`

	// History configures the SQLite run history.
	History HistorySettings `yaml:"history" toml:"history"`

	// Parallel configures parallel nodes.
	Parallel ParallelSettings `yaml:"parallel" toml:"parallel"`
}

// LoggingSettings configures structured logging.
type LoggingSettings struct {
	Level      string `yaml:"level" toml:"level" validate:"oneof=trace debug info warn error fatal"`
	Format     string `yaml:"format" toml:"format" validate:"oneof=console json"`
	Output     string `yaml:"output" toml:"output" validate:"required"`
	Caller     bool   `yaml:"caller" toml:"caller"`
	TimeFormat string `yaml:"time_format" toml:"time_format"`
}

// MetricsSettings configures metrics collection.
type MetricsSettings struct {
	Enabled      bool   `yaml:"enabled" toml:"enabled"`
	TextfilePath string `yaml:"textfile_path" toml:"textfile_path"`
	Namespace    string `yaml:"namespace" toml:"namespace" validate:"required_if=Enabled true"`
}

// TracingSettings configures tracing.
type TracingSettings struct {
	Enabled       bool     `yaml:"enabled" toml:"enabled"`
	Exporter      string   `yaml:"exporter" toml:"exporter" validate:"oneof=otlp stdout none"`
	Endpoint      string   `yaml:"endpoint" toml:"endpoint" validate:"required_if=Exporter otlp"`
	SamplingRate  float64  `yaml:"sampling_rate" toml:"sampling_rate" validate:"gte=0,lte=1"`
	ExportTimeout Duration `yaml:"export_timeout" toml:"export_timeout"`
	Insecure      bool     `yaml:"insecure" toml:"insecure"`
}

// HistorySettings configures the run history database.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path" validate:"required_if=Enabled true"`
}

// ParallelSettings configures parallel nodes.
type ParallelSettings struct {
	// MaxParallel bounds concurrent children of a parallel node that does
	// not set its own limit. Zero means unbounded.
	MaxParallel int `yaml:"max_parallel" toml:"max_parallel" validate:"gte=0"`
}

// Duration wraps time.Duration for text-based settings files.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string such as "30s".
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Logging: LoggingSettings{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			TimeFormat: "rfc3339",
		},
		Metrics: MetricsSettings{
			Enabled:   true,
			Namespace: "quicksetup",
		},
		Tracing: TracingSettings{
			Enabled:       false,
			Exporter:      "none",
			SamplingRate:  1.0,
			ExportTimeout: Duration{30 * time.Second},
			Insecure:      true,
		},
		History: HistorySettings{
			Enabled: true,
			Path:    DefaultHistoryPath(),
		},
	}
}

// DefaultHistoryPath returns the history database under the user cache
// directory, or in the working directory when there is none.
func DefaultHistoryPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "quicksetup-history.db"
	}
	return filepath.Join(dir, "quicksetup", "history.db")
}

// Load builds settings from defaults, the optional file at path and the
// process environment, then validates them.
func Load(path string) (*Settings, error) {
	s := Default()

	if path != "" {
		if err := s.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// LoadFile merges the file at path over s. The format is chosen by
// extension.
func (s *Settings) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, s); err != nil {
			return fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), s); err != nil {
			return fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported settings file extension %q (use .yaml, .yml or .toml)", ext)
	}

	return nil
}

// ApplyEnv overrides settings from environment variables. QUICKSETUP_LOG_LEVEL
// takes precedence over LOG_LEVEL.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		s.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookup("QUICKSETUP_LOG_LEVEL"); ok && v != "" {
		s.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookup("QUICKSETUP_HISTORY_PATH"); ok && v != "" {
		s.History.Path = v
	}
	if v, ok := lookup("QUICKSETUP_MAX_PARALLEL"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QUICKSETUP_MAX_PARALLEL %q: %w", v, err)
		}
		s.Parallel.MaxParallel = n
	}
	return nil
}

var settingsValidator = validator.New()

// Validate checks the settings.
func (s *Settings) Validate() error {
	if err := settingsValidator.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Telemetry converts the settings into a telemetry configuration.
func (s *Settings) Telemetry(version string) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	if version != "" {
		cfg.ServiceVersion = version
	}

	cfg.Logging = telemetry.LoggingConfig{
		Level:        s.Logging.Level,
		Format:       s.Logging.Format,
		Output:       s.Logging.Output,
		EnableCaller: s.Logging.Caller,
		TimeFormat:   s.Logging.TimeFormat,
	}

	cfg.Metrics.Enabled = s.Metrics.Enabled
	cfg.Metrics.TextfilePath = s.Metrics.TextfilePath
	if s.Metrics.Namespace != "" {
		cfg.Metrics.Namespace = s.Metrics.Namespace
	}

	cfg.Tracing = telemetry.TracingConfig{
		Enabled:       s.Tracing.Enabled,
		Exporter:      s.Tracing.Exporter,
		Endpoint:      s.Tracing.Endpoint,
		SamplingRate:  s.Tracing.SamplingRate,
		ExportTimeout: s.Tracing.ExportTimeout.Duration,
		Insecure:      s.Tracing.Insecure,
	}

	// The history recorder is the only event subscriber.
	cfg.Events.Enabled = s.History.Enabled

	return cfg
}
