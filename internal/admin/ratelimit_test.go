package admin

import (
	"testing"
	"time"
)

func fakeClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func TestCallerLimiter_AllowsUpToLimit(t *testing.T) {
	l := NewCallerLimiter(10)

	for i := 0; i < 10; i++ {
		ok, _, remaining := l.Allow("admin-1")
		if !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if remaining != 10-(i+1) {
			t.Fatalf("request %d: expected remaining %d, got %d", i+1, 10-(i+1), remaining)
		}
	}

	ok, retryAfter, remaining := l.Allow("admin-1")
	if ok {
		t.Fatal("11th request should be denied")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", retryAfter)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", remaining)
	}
}

func TestCallerLimiter_RollingWindowHoldsAcrossTheHour(t *testing.T) {
	l := NewCallerLimiter(10)
	clock, nowFn := fakeClock(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	l.now = nowFn

	for i := 0; i < 10; i++ {
		if ok, _, _ := l.Allow("admin-1"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	// No gradual refill: 6 minutes in, the 11th creation is still over the cap.
	*clock = clock.Add(6 * time.Minute)
	ok, retryAfter, _ := l.Allow("admin-1")
	if ok {
		t.Fatal("11th request 6 minutes into the window should be denied")
	}
	want := 54 * time.Minute
	if retryAfter != want {
		t.Fatalf("expected retry-after %v (until the oldest creation ages out), got %v", want, retryAfter)
	}

	// Still denied just before the oldest creation leaves the window.
	*clock = clock.Add(53*time.Minute + 59*time.Second)
	if ok, _, _ := l.Allow("admin-1"); ok {
		t.Fatal("request at 59m59s should still be denied")
	}

	// Once the creations age out of the window, the caller may create again.
	*clock = clock.Add(2 * time.Second)
	if ok, _, _ := l.Allow("admin-1"); !ok {
		t.Fatal("request after the window passed should be allowed")
	}
}

func TestCallerLimiter_SpreadCreationsStillCapped(t *testing.T) {
	l := NewCallerLimiter(10)
	clock, nowFn := fakeClock(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	l.now = nowFn

	// 10 creations spaced 5 minutes apart, spanning 45 minutes.
	for i := 0; i < 10; i++ {
		if ok, _, _ := l.Allow("admin-1"); !ok {
			t.Fatalf("creation %d should be allowed", i+1)
		}
		*clock = clock.Add(5 * time.Minute)
	}

	// 50 minutes after the first creation all 10 are still in the window.
	if ok, _, _ := l.Allow("admin-1"); ok {
		t.Fatal("11th creation inside the rolling hour should be denied")
	}

	// Once the oldest creation ages out, exactly one slot frees up.
	*clock = clock.Add(10*time.Minute + time.Second)
	if ok, _, _ := l.Allow("admin-1"); !ok {
		t.Fatal("expected a slot after the oldest creation aged out")
	}
	if ok, _, _ := l.Allow("admin-1"); ok {
		t.Fatal("only one slot should have freed up")
	}
}

func TestCallerLimiter_PerCallerBudgets(t *testing.T) {
	l := NewCallerLimiter(10)

	for i := 0; i < 10; i++ {
		l.Allow("admin-1")
	}
	if ok, _, _ := l.Allow("admin-1"); ok {
		t.Fatal("admin-1 should be exhausted")
	}

	// A different caller has an independent budget.
	if ok, _, _ := l.Allow("admin-2"); !ok {
		t.Fatal("admin-2 should not share admin-1's budget")
	}
}

func TestCallerLimiter_DefaultLimit(t *testing.T) {
	l := NewCallerLimiter(0)
	if l.perHour != 10 {
		t.Fatalf("expected default of 10 per hour, got %d", l.perHour)
	}
}
