// Package logging assembles structured slog loggers and formatting helpers
// used across swna.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context-aware helpers that tag log lines with document IDs and pipeline
// stages. Console output goes to stderr and a daily swna-YYYYMMDD.log file; the
// audit trail is a separate concern handled by the audit package.
package logging
