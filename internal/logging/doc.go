// Package logging provides the leveled logger used by every component of
// the movie indexer.
//
// It supports the following log levels:
//   - DEBUG: per-file and per-folder scan decisions
//   - INFO: pass and phase progress
//   - WARN: skipped items, unreadable files, parse failures
//   - ERROR: persistence failures and crashed tasks
//   - FATAL: startup errors that terminate the process
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true. Components obtain a prefixed logger with
// Named, e.g. logging.Named("indexer").Info("...").
package logging
