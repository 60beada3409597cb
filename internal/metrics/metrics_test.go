package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledRecordsNothing(t *testing.T) {
	m := New(Config{Enabled: false})
	m.Inc(LoginSuccess)
	m.Observe(AuthenticateLatency, time.Millisecond)

	if got := m.Value(LoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if s := m.Snapshot(); len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", s)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(LoginSuccess)
	m.Observe(AuthenticateLatency, time.Second)
	if m.Enabled() || m.Value(LoginSuccess) != 0 {
		t.Fatalf("nil metrics should be inert")
	}
}

func TestConcurrentIncrement(t *testing.T) {
	m := New(Config{Enabled: true})

	const goroutines = 16
	const perG = 2000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(WSMessage)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(WSMessage); got != goroutines*perG {
		t.Fatalf("expected %d, got %d", goroutines*perG, got)
	}
}

func TestHistogramBuckets(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatencyHistograms: true})

	observations := []time.Duration{
		2 * time.Millisecond,
		8 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		90 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		2 * time.Second,
	}
	for _, d := range observations {
		m.Observe(AuthenticateLatency, d)
	}
	m.Observe(LoginSuccess, time.Millisecond)

	got := m.Snapshot().Histograms[AuthenticateLatency]
	if len(got) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(got))
	}
	for i, v := range got {
		if v != 1 {
			t.Fatalf("bucket %d: expected 1, got %d", i, v)
		}
	}
}

func TestSnapshotWithoutLatency(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Inc(RateLimitHit)

	s := m.Snapshot()
	if s.Counters[RateLimitHit] != 1 {
		t.Fatalf("expected counter 1, got %d", s.Counters[RateLimitHit])
	}
	if _, ok := s.Histograms[AuthenticateLatency]; ok {
		t.Fatalf("histogram should be absent when latency is disabled")
	}
}
