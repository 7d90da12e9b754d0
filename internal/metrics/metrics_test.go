package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.StageEntered("validating")
	m.StageEntered("validating")
	m.StageEntered("ingesting")
	m.RunFinished("done", 1500*time.Millisecond)
	m.ArtifactsSwept(3)

	if got := testutil.ToFloat64(m.stages.WithLabelValues("validating")); got != 2 {
		t.Fatalf("validating entries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("done")); got != 1 {
		t.Fatalf("done runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.artifactsGC); got != 3 {
		t.Fatalf("artifacts swept = %v, want 3", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RunFinished("conversion_failed", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`bhashavaani_pipeline_runs_total{outcome="conversion_failed"} 1`,
		"bhashavaani_pipeline_duration_seconds_count 1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.StageEntered("validating")
	m.RunFinished("done", time.Second)
	m.ArtifactsSwept(1)
	m.SessionsExpired(1)
}
