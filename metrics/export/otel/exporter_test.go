package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/authsvc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot authsvc.MetricsSnapshot
}

func (f *fakeSource) MetricsSnapshot() authsvc.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := authsvc.MetricsSnapshot{
		Counters:   make(map[authsvc.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[authsvc.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func newMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findSum(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && len(sum.DataPoints) > 0 {
				return sum.DataPoints[0].Value, true
			}
		}
	}
	return 0, false
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newMeter()
	src := &fakeSource{
		snapshot: authsvc.MetricsSnapshot{
			Counters: map[authsvc.MetricID]uint64{
				authsvc.MetricLoginSuccess: 3,
				authsvc.MetricAuditDropped: 1,
			},
			Histograms: map[authsvc.MetricID][]uint64{
				authsvc.MetricAuthenticateLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
	}

	exp, err := New(provider.Meter("authsvc-test"), src)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got, ok := findSum(rm, "authsvc_login_success_total"); !ok || got != 3 {
		t.Fatalf("login success = %d (found %v), want 3", got, ok)
	}
	if got, ok := findSum(rm, "authsvc_audit_dropped_total"); !ok || got != 1 {
		t.Fatalf("audit dropped = %d (found %v), want 1", got, ok)
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newMeter()

	if _, err := New(provider.Meter("authsvc-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := New(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newMeter()
	src := &fakeSource{
		snapshot: authsvc.MetricsSnapshot{
			Counters: map[authsvc.MetricID]uint64{
				authsvc.MetricLoginSuccess: 1,
			},
			Histograms: map[authsvc.MetricID][]uint64{},
		},
	}

	exp, err := New(provider.Meter("authsvc-test"), src)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[authsvc.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
