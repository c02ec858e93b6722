// Package logger configures structured JSON logging on top of log/slog,
// with level selection driven by application configuration and helpers for
// carrying a logger through context.
package logger
