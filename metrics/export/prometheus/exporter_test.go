package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/authsvc"
)

type fakeSource struct {
	snapshot authsvc.MetricsSnapshot
}

func (f fakeSource) MetricsSnapshot() authsvc.MetricsSnapshot { return f.snapshot }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := New(fakeSource{
		snapshot: authsvc.MetricsSnapshot{
			Counters:   map[authsvc.MetricID]uint64{},
			Histograms: map[authsvc.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCountersAndHistogram(t *testing.T) {
	exp := New(fakeSource{
		snapshot: authsvc.MetricsSnapshot{
			Counters: map[authsvc.MetricID]uint64{
				authsvc.MetricLoginSuccess: 7,
				authsvc.MetricRateLimitHit: 3,
				authsvc.MetricWSConnect:    2,
				authsvc.MetricTokenRevoked: 1,
				authsvc.MetricAuditDropped: 2,
			},
			Histograms: map[authsvc.MetricID][]uint64{
				authsvc.MetricAuthenticateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})

	out := exp.Render()
	for _, want := range []string{
		"authsvc_login_success_total 7",
		"authsvc_rate_limit_hit_total 3",
		"authsvc_ws_connect_total 2",
		"authsvc_token_revoked_total 1",
		"authsvc_login_failure_total 0",
		`authsvc_authenticate_latency_seconds_bucket{le="0.005"} 1`,
		`authsvc_authenticate_latency_seconds_bucket{le="+Inf"} 36`,
		"authsvc_authenticate_latency_seconds_count 36",
		"authsvc_audit_dropped_total 2",
		"# TYPE authsvc_authenticate_latency_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderSkipsHistogramWhenLatencyDisabled(t *testing.T) {
	exp := New(fakeSource{
		snapshot: authsvc.MetricsSnapshot{
			Counters:   map[authsvc.MetricID]uint64{authsvc.MetricLoginSuccess: 1},
			Histograms: map[authsvc.MetricID][]uint64{},
		},
	})

	if out := exp.Render(); strings.Contains(out, "latency") {
		t.Fatalf("histogram rendered without data:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := New(fakeSource{
		snapshot: authsvc.MetricsSnapshot{
			Counters:   map[authsvc.MetricID]uint64{authsvc.MetricLoginSuccess: 1},
			Histograms: map[authsvc.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNilExporterRendersNothing(t *testing.T) {
	var exp *Exporter
	if exp.Render() != "" {
		t.Fatal("nil exporter rendered output")
	}
}

func BenchmarkRender(b *testing.B) {
	exp := New(fakeSource{
		snapshot: authsvc.MetricsSnapshot{
			Counters: map[authsvc.MetricID]uint64{
				authsvc.MetricLoginSuccess:   1000,
				authsvc.MetricLoginFailure:   40,
				authsvc.MetricRefreshSuccess: 800,
			},
			Histograms: map[authsvc.MetricID][]uint64{
				authsvc.MetricAuthenticateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	for b.Loop() {
		_ = exp.Render()
	}
}
