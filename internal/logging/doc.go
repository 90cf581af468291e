// Package logging provides structured logging utilities for todosync.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "lists.create")
//	logger.Debug("dispatching call",
//	    logging.Method("POST"),
//	    logging.Function("users/@me/lists"))
//
// # Security Considerations
//
// Access tokens are never logged directly; use SanitizeToken when a token
// needs to appear in a log line at all.
package logging
