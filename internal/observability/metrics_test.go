package observability

import (
	"testing"
	"time"
)

func TestRecordStageCounts(t *testing.T) {
	t.Parallel()
	metrics := NewMetrics()
	metrics.RecordStage("analyze", "ok")
	metrics.RecordStage("analyze", "ok")
	metrics.RecordStage("plan", "failed")

	counts := metrics.StageCounts()
	if counts["analyze|ok"] != 2 {
		t.Errorf("analyze|ok = %d, want 2", counts["analyze|ok"])
	}
	if counts["plan|failed"] != 1 {
		t.Errorf("plan|failed = %d, want 1", counts["plan|failed"])
	}

	// The returned map is a copy.
	counts["analyze|ok"] = 99
	if got := metrics.StageCounts()["analyze|ok"]; got != 2 {
		t.Errorf("analyze|ok after mutation = %d, want 2", got)
	}
}

func TestRecordRequestAccumulatesLatency(t *testing.T) {
	t.Parallel()
	metrics := NewMetrics()
	metrics.RecordRequest("/tickets", "POST", 201, 30*time.Millisecond)
	metrics.RecordRequest("/tickets", "POST", 201, 10*time.Millisecond)
	metrics.RecordRequest("/tickets", "GET", 200, 5*time.Millisecond)

	stats := metrics.RequestStats()
	post := stats["/tickets|POST|201"]
	if post.Count != 2 {
		t.Errorf("post count = %d, want 2", post.Count)
	}
	if post.AvgMillis != 20 {
		t.Errorf("post avg = %f ms, want 20", post.AvgMillis)
	}
	if got := stats["/tickets|GET|200"].Count; got != 1 {
		t.Errorf("get count = %d, want 1", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	t.Parallel()
	var metrics *Metrics
	metrics.RecordStage("analyze", "ok")
	metrics.RecordRequest("/tickets", "POST", 201, time.Millisecond)
	metrics.RecordError("/tickets", "POST", "INTERNAL_ERROR")
	if metrics.StageCounts() != nil || metrics.RequestStats() != nil {
		t.Error("nil metrics must return nil maps")
	}
}
