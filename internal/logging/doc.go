// Package logging provides slog-based structured logging with console and
// JSON handlers plus shared attribute helpers used across the daemon.
package logging
