// Package resilience provides reliability patterns for the pipeline's
// external dependencies: circuit breakers for the analyzer APIs and the
// database, and retry logic with exponential backoff and jitter for
// transient failures.
//
// Usage:
//
//	cb := circuitbreaker.New(circuitbreaker.ClaudeAPIConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callExternalService()
//	})
//
//	err := retry.WithBackoff(ctx, retry.AIAPIConfig(), func() error {
//	    return performOperation()
//	})
package resilience
