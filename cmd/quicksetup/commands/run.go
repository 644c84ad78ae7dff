package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/openfroyo/quicksetup/pkg/config"
	"github.com/openfroyo/quicksetup/pkg/engine"
	"github.com/openfroyo/quicksetup/pkg/handlers"
	"github.com/openfroyo/quicksetup/pkg/stores"
	"github.com/openfroyo/quicksetup/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

type actionFlags struct {
	install   bool
	uninstall bool
	update    bool
}

// action returns the selected action. cobra guarantees exactly one flag
// is set before RunE is called.
func (f actionFlags) action() engine.ActionType {
	switch {
	case f.uninstall:
		return engine.ActionUninstall
	case f.update:
		return engine.ActionUpdate
	default:
		return engine.ActionInstall
	}
}

func runConfig(ctx context.Context, opts Options, settingsPath string, action engine.ActionType, configPath string) error {
	settings, err := config.Load(settingsPath)
	if err != nil {
		return exitErr(ExitStartup, err)
	}

	tel, err := telemetry.NewTelemetry(settings.Telemetry(opts.Version))
	if err != nil {
		return exitErr(ExitStartup, fmt.Errorf("failed to initialise telemetry: %w", err))
	}
	logger := tel.Logger.NewComponentLogger("cli").Zerolog()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := tel.Shutdown(shutdownCtx); serr != nil {
			logger.Warn().Err(serr).Msg("Telemetry shutdown failed")
		}
	}()

	registry, err := handlers.NewRegistry(opts.Env)
	if err != nil {
		return exitErr(ExitStartup, err)
	}

	if settings.History.Enabled {
		closeHistory := attachHistory(ctx, settings.History.Path, tel, logger)
		defer closeHistory()
	}

	session := engine.NewSession(registry,
		engine.WithTelemetry(tel),
		engine.WithMaxParallel(settings.Parallel.MaxParallel),
	)

	if err := session.PrepareHost(configPath, opts.Argv); err != nil {
		logger.Warn().Err(err).Msg("Could not set CONF_DIR and CMD")
	}

	tree, err := engine.LoadTree(configPath)
	if err != nil {
		return exitErr(ExitConfig, err)
	}

	ok, err := session.Run(ctx, tree, action, configPath)
	if err != nil {
		return exitErr(ExitRun, err)
	}
	if !ok {
		return exitErr(ExitRun, errors.New("a command failed; remaining nodes were skipped"))
	}

	return nil
}

// attachHistory opens the history database and subscribes a recorder to
// the run events. History is best effort: failures are logged and the run
// goes ahead without it.
func attachHistory(ctx context.Context, path string, tel *telemetry.Telemetry, logger zerolog.Logger) func() {
	store, err := openHistory(ctx, path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Run history disabled")
		return func() {}
	}

	recorder := stores.NewRecorder(store, logger)
	recorder.Attach(tel.Events)

	return func() {
		if err := recorder.Err(); err != nil {
			logger.Warn().Err(err).Msg("Run history is incomplete")
		}
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close history database")
		}
	}
}

func openHistory(ctx context.Context, path string) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
