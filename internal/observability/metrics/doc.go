// Package metrics provides the Prometheus metric set for the news pipeline:
// article intake, deduplication merges, scoring outcomes, social dispatch and
// subscriber notifications, plus database query timing.
//
// All metrics register with the Prometheus default registry via promauto and
// are exposed on the worker's /metrics endpoint.
package metrics
