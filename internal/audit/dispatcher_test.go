package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatalf("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatalf("nil dispatcher should report zero drops")
	}
}

func TestCloseFlushesBufferedEvents(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{EventType: "login_success"})
	}
	d.Close()

	if got := sink.count.Load(); got != 50 {
		t.Fatalf("expected 50 delivered events, got %d", got)
	}
}

func TestDropIfFullCountsDrops(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event is held by the sink, one sits in the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "e"})
	}

	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatalf("expected dropped events")
	}

	close(sink.gate)
	d.Close()
}

func TestOnDropReportsEventType(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	var drops atomic.Int64
	var lastType atomic.Value
	d := NewDispatcher(Config{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
		OnDrop: func(eventType string) {
			drops.Add(1)
			lastType.Store(eventType)
		},
	}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "login_failure"})
	}
	close(sink.gate)
	d.Close()

	if drops.Load() == 0 || uint64(drops.Load()) != d.Dropped() {
		t.Fatalf("OnDrop calls = %d, Dropped = %d", drops.Load(), d.Dropped())
	}
	if lastType.Load() != "login_failure" {
		t.Fatalf("OnDrop event type = %v", lastType.Load())
	}
}

func TestBlockingEmitCountsAbandonedEvent(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	// Fill the worker and the buffer, then give up on the next event.
	d.Emit(context.Background(), Event{EventType: "a"})
	deadline := time.Now().Add(time.Second)
	for len(d.ch) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Emit(context.Background(), Event{EventType: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d.Emit(ctx, Event{EventType: "c"})

	if d.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", d.Dropped())
	}
}

type ctxKey struct{}

type ctxSink struct {
	got chan any
}

func (s ctxSink) Emit(ctx context.Context, _ Event) {
	s.got <- ctx.Value(ctxKey{})
}

func TestSinkSeesDetachedRequestContext(t *testing.T) {
	sink := ctxSink{got: make(chan any, 1)}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-7"))
	d.Emit(ctx, Event{EventType: "logout"})
	cancel()
	d.Close()

	select {
	case v := <-sink.got:
		if v != "req-7" {
			t.Fatalf("sink context value = %v", v)
		}
	default:
		t.Fatal("event not delivered")
	}
}

func TestEmitAfterCloseIsIgnored(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	d.Close()
	d.Emit(context.Background(), Event{EventType: "late"})

	if got := sink.count.Load(); got != 0 {
		t.Fatalf("expected no delivery after close, got %d", got)
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{EventType: "logout", UserID: "u1", UserAgent: "curl", Success: true})

	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("invalid json line %q: %v", buf.String(), err)
	}
	if got["event_type"] != "logout" || got["user_agent"] != "curl" {
		t.Fatalf("unexpected event: %v", got)
	}
}

func TestSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	sink.Emit(context.Background(), Event{EventType: "login_failure", Error: "invalid_credentials", RequestID: "r-1"})
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "error=invalid_credentials") || !strings.Contains(out, "request_id=r-1") {
		t.Fatalf("unexpected log output: %q", out)
	}
}
