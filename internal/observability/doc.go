// Package observability groups the worker's logging and metrics
// infrastructure.
//
// Subpackages:
//   - logging: structured logging with slog, context propagation
//   - metrics: Prometheus registry and domain metric recorders
package observability
