// Package config loads the quicksetup engine settings.
//
// # Overview
//
// Settings control how the engine reports on a run, not what it runs: log
// level and format, the metrics textfile, tracing, the run history database
// and the default concurrency of parallel nodes. The config trees that
// describe an installation are read by package engine.
//
// # Sources
//
// Settings are built in three layers, later layers winning:
//
//  1. Default()
//  2. an optional settings file, YAML (.yaml, .yml) or TOML (.toml)
//  3. environment variables (QUICKSETUP_LOG_LEVEL, LOG_LEVEL,
//     QUICKSETUP_HISTORY_PATH, QUICKSETUP_MAX_PARALLEL)
//
// The result is validated before use.
//
// # Usage Example
//
//	settings, err := config.Load("quicksetup.yaml")
//	if err != nil {
//	    return err
//	}
//	tel, err := telemetry.NewTelemetry(settings.Telemetry(version))
package config
