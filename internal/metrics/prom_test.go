package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetBuildInfo("1.0.0", "abc", "2024-01-01")
	m.RecordPredict("success")
	m.RecordPredict("success")
	m.RecordPredict("invalid_json")
	m.ObserveGeneration("success", 100*time.Millisecond)
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)

	if v := testutil.ToFloat64(m.predictRequests.WithLabelValues("success")); v != 2 {
		t.Fatalf("predict success: %v", v)
	}
	if v := testutil.ToFloat64(m.predictRequests.WithLabelValues("invalid_json")); v != 1 {
		t.Fatalf("predict invalid_json: %v", v)
	}
	if n := testutil.CollectAndCount(m.generationDuration); n != 1 {
		t.Fatalf("generation series: %d", n)
	}
	if v := testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")); v != 2 {
		t.Fatalf("cache misses: %v", v)
	}
	if v := testutil.ToFloat64(m.buildInfo.WithLabelValues("2024-01-01", "abc", "1.0.0")); v != 1 {
		t.Fatalf("build info: %v", v)
	}
}

func TestIndependentRegistries(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())
	a.RecordPredict("success")
	if v := testutil.ToFloat64(b.predictRequests.WithLabelValues("success")); v != 0 {
		t.Fatalf("registries share state: %v", v)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordPredict("success")
	m.ObserveGeneration("success", time.Second)
	m.ObserveCache(true)
	m.SetBuildInfo("", "", "")
}
