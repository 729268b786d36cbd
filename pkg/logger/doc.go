// Package logger provides the structured logging interface used across the
// catalog builder.
//
// It wraps zerolog behind a small Logger interface with:
//   - level methods (Debug, Info, Warn, Error, Fatal)
//   - child loggers carrying fields (WithField, WithFields, WithError)
//   - colored console output, or JSON lines when logging.format is "json"
//   - an optional append-only log file
//   - a global logger for commands, and TestLogger for assertions in tests
//
// Basic usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log, runID := logger.WithRunID(logger.GetLogger())
//	log.WithField("folder", cfg.Collection.FolderName).Info("Building catalog")
package logger
