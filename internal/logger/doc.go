// Package logger provides a simple, thread-safe logging facility.
//
// The logger supports five levels: Debug, Info, Success, Warn, and Error.
// Each log entry includes a timestamp, level, optional scope, and message.
// The scope is usually a mix identifier ("50_50") or a worker suffix.
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "Aggregator started")
//	logger.Warn("50_50", "Could not parse %s: %v", path, err)
//	logger.Success("50_50", "Saved %s", out)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("a1b2c3d4", "Debug message")
//
// # Log Levels
//
// Messages below the configured level are filtered:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Success, Warn, Error
//   - LevelSuccess: Success, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
//
// # Thread Safety
//
// All logging operations are protected by a mutex and safe for concurrent use.
package logger
