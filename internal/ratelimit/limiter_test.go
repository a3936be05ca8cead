package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCheckRejectsAfterMax(t *testing.T) {
	clock := newFakeClock()
	l := New(Policy{PerRoute: []Window{{Period: time.Minute, Max: 3}}}, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		if d := l.Check("1.2.3.4", "/recognise"); !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	d := l.Check("1.2.3.4", "/recognise")
	if d.Allowed {
		t.Fatal("4th request should be rejected")
	}
	if d.Window.Max != 3 || d.Window.Period != time.Minute {
		t.Errorf("unexpected blocking window %s", d.Window)
	}
	if d.RetryAfter != time.Minute {
		t.Errorf("expected RetryAfter 1m, got %s", d.RetryAfter)
	}
}

func TestWindowResetsAfterPeriod(t *testing.T) {
	clock := newFakeClock()
	l := New(Policy{PerRoute: []Window{{Period: time.Minute, Max: 2}}}, WithClock(clock.Now))

	l.Check("a", "/edit")
	clock.Advance(30 * time.Second)
	l.Check("a", "/edit")

	if d := l.Check("a", "/edit"); d.Allowed {
		t.Fatal("expected rejection while window is full")
	} else if d.RetryAfter != 30*time.Second {
		t.Errorf("expected RetryAfter 30s, got %s", d.RetryAfter)
	}

	clock.Advance(30 * time.Second)
	if d := l.Check("a", "/edit"); !d.Allowed {
		t.Fatal("expected request to pass once the window elapsed")
	}
}

func TestRejectionDoesNotMutate(t *testing.T) {
	clock := newFakeClock()
	l := New(Policy{
		Global:   []Window{{Period: time.Hour, Max: 3}},
		PerRoute: []Window{{Period: time.Minute, Max: 1}},
	}, WithClock(clock.Now))

	if !l.Check("a", "/recognise").Allowed {
		t.Fatal("first request should pass")
	}
	// blocked by the route window; the hourly counter must not move
	for i := 0; i < 5; i++ {
		if l.Check("a", "/recognise").Allowed {
			t.Fatal("route window should block")
		}
	}

	if !l.Check("a", "/edit").Allowed {
		t.Fatal("second route should pass")
	}
	clock.Advance(time.Minute)
	if !l.Check("a", "/recognise").Allowed {
		t.Fatal("third request should pass: rejected checks consumed nothing")
	}
	if l.Check("a", "/edit").Allowed {
		t.Fatal("hourly cap of 3 should now block")
	}
}

func TestGlobalWindowSharedAcrossRoutes(t *testing.T) {
	l := New(Policy{Global: []Window{{Period: 24 * time.Hour, Max: 2}}})

	l.Check("a", "/recognise")
	l.Check("a", "/edit")

	if l.Check("a", "/recognise").Allowed {
		t.Error("daily cap should apply across routes")
	}
	if !l.Check("b", "/recognise").Allowed {
		t.Error("other identities are independent")
	}
}

func TestRouteWindowsAreIndependent(t *testing.T) {
	l := New(Policy{PerRoute: []Window{{Period: time.Minute, Max: 1}}})

	if !l.Check("a", "/recognise").Allowed || !l.Check("a", "/edit").Allowed {
		t.Fatal("each route has its own per-minute budget")
	}
	if l.Check("a", "/recognise").Allowed || l.Check("a", "/edit").Allowed {
		t.Fatal("both route budgets should be spent")
	}
}

func TestConcurrentChecksAdmitExactlyMax(t *testing.T) {
	l := New(Policy{PerRoute: []Window{{Period: time.Minute, Max: 25}}})

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check("same-client", "/recognise").Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 25 {
		t.Errorf("expected exactly 25 admitted, got %d", got)
	}
}

func TestSweepDropsIdleIdentities(t *testing.T) {
	clock := newFakeClock()
	l := New(Policy{
		Global:   []Window{{Period: time.Hour, Max: 10}},
		PerRoute: []Window{{Period: time.Minute, Max: 10}},
	}, WithClock(clock.Now))

	l.Check("a", "/recognise")
	clock.Advance(30 * time.Minute)
	l.Check("b", "/edit")

	if n := l.Sweep(); n != 0 {
		t.Fatalf("nothing should be idle yet, removed %d", n)
	}

	clock.Advance(31 * time.Minute)
	if n := l.Sweep(); n != 1 {
		t.Fatalf("expected a to be swept, removed %d", n)
	}
	if l.Len() != 1 {
		t.Errorf("expected one tracked identity, got %d", l.Len())
	}

	// a starts from scratch
	if !l.Check("a", "/recognise").Allowed {
		t.Error("swept identity should be admitted")
	}
}

func TestParseWindows(t *testing.T) {
	ws, err := ParseWindows("200/24h, 50/1h")
	if err != nil {
		t.Fatalf("ParseWindows failed: %v", err)
	}
	if len(ws) != 2 || ws[0] != (Window{Period: 24 * time.Hour, Max: 200}) || ws[1] != (Window{Period: time.Hour, Max: 50}) {
		t.Errorf("unexpected windows %v", ws)
	}

	for _, bad := range []string{"10", "x/1m", "10/forever"} {
		if _, err := ParseWindows(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Errorf("default policy should be valid: %v", err)
	}
	if err := (Policy{Global: []Window{{Period: 0, Max: 1}}}).Validate(); err == nil {
		t.Error("expected error for zero period")
	}
	if err := (Policy{PerRoute: []Window{{Period: time.Second, Max: 0}}}).Validate(); err == nil {
		t.Error("expected error for zero max")
	}
}
