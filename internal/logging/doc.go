// Package logging wraps log/slog with the handlers and attribute helpers
// shared by every dubforge component. The console handler renders compact
// single-line output for interactive use; the JSON handler is intended for
// log files and machine consumption.
package logging
