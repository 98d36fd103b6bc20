package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAreIndependentPerRegistry(t *testing.T) {
	a, b := New(), New()
	a.JobsTotal.WithLabelValues("bijian", OutcomeSuccess).Inc()
	a.UploadedBytes.WithLabelValues("bijian").Add(1024)

	if got := testutil.ToFloat64(a.JobsTotal.WithLabelValues("bijian", OutcomeSuccess)); got != 1 {
		t.Fatalf("jobs_total = %v", got)
	}
	if got := testutil.ToFloat64(b.JobsTotal.WithLabelValues("bijian", OutcomeSuccess)); got != 0 {
		t.Fatalf("registries share state: %v", got)
	}
	if got := testutil.ToFloat64(a.UploadedBytes.WithLabelValues("bijian")); got != 1024 {
		t.Fatalf("uploaded_bytes_total = %v", got)
	}
}

func TestServerExposesMetrics(t *testing.T) {
	m := New()
	m.PollAttempts.WithLabelValues("jianying").Add(3)

	srv := NewServer("127.0.0.1:0", m)
	addr, err := srv.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `subcue_poll_attempts_total{provider="jianying"} 3`) {
		t.Fatalf("metric missing from output:\n%s", body)
	}

	health, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", health.StatusCode)
	}
}
