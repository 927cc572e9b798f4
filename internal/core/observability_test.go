package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "duplicate", true, 4*time.Millisecond)
	rec.Observe(ctx, "duplicate", true, 6*time.Millisecond)
	rec.Observe(ctx, "duplicate", false, 2*time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond) // ignored

	snap := rec.Snapshot()
	if got := snap.Results["duplicate"]["success"]; got != 2 {
		t.Fatalf("success count = %d", got)
	}
	if got := snap.Results["duplicate"]["error"]; got != 1 {
		t.Fatalf("error count = %d", got)
	}
	if got := snap.DurationsMS["duplicate"]; got != 12 {
		t.Fatalf("duration total = %v", got)
	}
	if rec.Name() == "" {
		t.Fatal("expected a generated expvar name")
	}
}

func TestExpvarMetricsRecorderDistinctNames(t *testing.T) {
	a := NewExpvarMetricsRecorder("")
	b := NewExpvarMetricsRecorder("")
	if a.Name() == b.Name() {
		t.Fatalf("recorders share expvar name %s", a.Name())
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()

	rec.Observe(ctx, "create_root", true, time.Millisecond)
	rec.Observe(ctx, "create_root", true, time.Millisecond)
	rec.Observe(ctx, "create_root", false, time.Millisecond)

	success := testutil.ToFloat64(rec.results.WithLabelValues("create_root", "success"))
	if success != 2 {
		t.Fatalf("success counter = %v", success)
	}
	failure := testutil.ToFloat64(rec.results.WithLabelValues("create_root", "error"))
	if failure != 1 {
		t.Fatalf("error counter = %v", failure)
	}
}

func TestPrometheusMetricsRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetricsRecorder(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
