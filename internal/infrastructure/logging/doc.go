// Package logging provides structured logging for influxlogd.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Fan-out to extra handlers, which is how records reach InfluxDB
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in the config file:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// # Usage
//
//	handler := appender.NewHandler(app, slog.LevelDebug)
//	logger := logging.New(cfg.Logging, "1.0.0", handler)
//	logger.Info("starting service", "port", 8080)
//
// The logger used to report appender failures must be built without the
// appender handler, otherwise a failing write would log into itself.
package logging
