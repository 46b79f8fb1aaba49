// Package logging provides structured logging for modhost.
//
// This package wraps Go's log/slog to emit JSON lines. Every lifecycle
// failure is logged with the component type and the operation so the log can
// be filtered per component after the fact.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Persistent attributes through [Logger.WithComponent], [Logger.WithOp]
//     and [Logger.With]
//   - Size-based rotation through [RotatingWriter]
//
// # Basic Usage
//
//	logger, err := logging.NewLoggerWithOptions(logging.Options{
//	    Dir:      "/var/log/modhost",
//	    Level:    "info",
//	    Rotation: logging.RotationConfig{MaxSizeMB: 10, MaxBackups: 3},
//	})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithComponent("db").WithOp("load").Error("load failed", "error", err)
//
// For tests, [NopLogger] discards everything.
package logging
