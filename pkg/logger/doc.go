// Package logger builds configured slog.Logger instances with environment
// presets and automatic injection of context values (e.g. request IDs).
package logger
