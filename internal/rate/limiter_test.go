package rate

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/authsvc/internal/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newLimiterHarness(t *testing.T) (*Limiter, *miniredis.Miniredis, *fakeClock, *bytes.Buffer) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}

	return New(rdb, "app", logger).WithClock(clock.Now), mr, clock, &buf
}

func TestSlidingWindowAllowsUpToLimit(t *testing.T) {
	l, mr, clock, _ := newLimiterHarness(t)
	ctx := context.Background()
	tier := Tier{Limit: 3, Window: 60 * time.Second}

	want := []bool{true, true, true, false}
	wantRemaining := []int{2, 1, 0, 0}
	for i := range want {
		d := l.Check(ctx, "login", "10.0.0.1", tier)
		if d.Allowed != want[i] || d.Remaining != wantRemaining[i] {
			t.Fatalf("request %d: got allowed=%v remaining=%d", i, d.Allowed, d.Remaining)
		}
		if !d.ResetAt.Equal(clock.Now().Add(time.Minute)) {
			t.Fatalf("request %d: unexpected reset %v", i, d.ResetAt)
		}
	}

	members, err := mr.ZMembers("app:rate_limit:login:10.0.0.1")
	if err != nil {
		t.Fatalf("zmembers: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("denied request must not be recorded, got %d members", len(members))
	}

	clock.Advance(60 * time.Second)
	if d := l.Check(ctx, "login", "10.0.0.1", tier); !d.Allowed {
		t.Fatal("expected request to be allowed once the window has passed")
	}
}

func TestSlidingWindowSlides(t *testing.T) {
	l, _, clock, _ := newLimiterHarness(t)
	ctx := context.Background()
	tier := Tier{Limit: 2, Window: 10 * time.Second}

	l.Check(ctx, "api", "u", tier)
	clock.Advance(6 * time.Second)
	l.Check(ctx, "api", "u", tier)

	if d := l.Check(ctx, "api", "u", tier); d.Allowed {
		t.Fatal("third request inside the window must be denied")
	}

	// The first entry leaves the window; the second is still inside.
	clock.Advance(4 * time.Second)
	if d := l.Check(ctx, "api", "u", tier); !d.Allowed || d.Remaining != 0 {
		t.Fatalf("expected one slot to free up, got %+v", d)
	}
	if d := l.Check(ctx, "api", "u", tier); d.Allowed {
		t.Fatal("window is full again")
	}
}

func TestScopesAndIdentifiersAreIsolated(t *testing.T) {
	l, _, _, _ := newLimiterHarness(t)
	ctx := context.Background()
	tier := Tier{Limit: 1, Window: time.Minute}

	if !l.Check(ctx, "login", "a", tier).Allowed {
		t.Fatal("first request for a must pass")
	}
	if !l.Check(ctx, "login", "b", tier).Allowed {
		t.Fatal("identifier b has its own window")
	}
	if !l.Check(ctx, "register", "a", tier).Allowed {
		t.Fatal("scope register has its own window")
	}
}

func TestSameInstantRequestsCountSeparately(t *testing.T) {
	l, _, _, _ := newLimiterHarness(t)
	ctx := context.Background()
	tier := Tier{Limit: 5, Window: time.Minute}

	for i := 0; i < 5; i++ {
		if !l.Check(ctx, "burst", "ip", tier).Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Check(ctx, "burst", "ip", tier).Allowed {
		t.Fatal("sixth request at the same instant must be denied")
	}
}

func TestFailOpenWhenRedisDown(t *testing.T) {
	l, mr, _, buf := newLimiterHarness(t)
	mr.Close()

	d := l.Check(context.Background(), "login", "ip", Strict)
	if !d.Allowed || !d.Degraded || d.Remaining != Strict.Limit {
		t.Fatalf("expected fail-open decision, got %+v", d)
	}
	if !strings.Contains(buf.String(), "rate limit check failed") {
		t.Fatalf("expected a warning to be logged, got %q", buf.String())
	}
}

func TestDisabledTier(t *testing.T) {
	l, mr, _, _ := newLimiterHarness(t)

	if d := l.Check(context.Background(), "x", "y", Tier{}); !d.Allowed || d.Degraded {
		t.Fatalf("zero tier disables limiting, got %+v", d)
	}
	if mr.Exists("app:rate_limit:x:y") {
		t.Fatal("disabled tier must not touch redis")
	}
}
