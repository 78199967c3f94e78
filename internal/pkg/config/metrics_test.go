package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConfigMetrics(t *testing.T) {
	m := NewConfigMetrics("config_metrics_test")

	m.RecordValidationError("cron_schedule")
	m.RecordValidationError("cron_schedule")
	m.RecordFallback("cron_schedule")

	if got := testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("cron_schedule")); got != 2 {
		t.Errorf("validation errors = %v", got)
	}
	if got := testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("cron_schedule")); got != 1 {
		t.Errorf("fallbacks = %v", got)
	}

	m.SetFallbackActive(true)
	if got := testutil.ToFloat64(m.FallbackActive); got != 1 {
		t.Errorf("fallback active = %v", got)
	}
	m.SetFallbackActive(false)
	if got := testutil.ToFloat64(m.FallbackActive); got != 0 {
		t.Errorf("fallback active = %v", got)
	}
}
