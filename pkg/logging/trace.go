package logging

import "log/slog"

// EnableTrace switches per-frame trace logs on. Default off: at telemetry
// rates they drown everything else.
var EnableTrace = false

// Trace logs at DEBUG level, but only if EnableTrace is set.
func Trace(logger *slog.Logger, msg string, args ...any) {
	if EnableTrace {
		logger.Debug(msg, args...)
	}
}

// TraceDefault logs to the default logger if EnableTrace is set.
func TraceDefault(msg string, args ...any) {
	if EnableTrace {
		slog.Debug(msg, args...)
	}
}
