// Package logging provides structured logging helpers on top of log/slog.
//
// Loggers emit JSON in production and text locally, with the level picked up
// from LOG_LEVEL. Dispatch IDs can be attached through the context so one
// pipeline run is traceable across log entries.
package logging
