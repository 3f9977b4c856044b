// Package logger provides structured logging for av-device-server.
//
// The package wraps log/slog:
//
//   - logger.go: handler selection (json, text), level filtering, default logger
//   - context.go: context propagation of the logger and request id
//
// The level is held in a shared slog.LevelVar so it can be changed while the
// server runs, for example after the configuration file is edited.
package logger
