package admin

import (
	"sync"
	"time"
)

// CallerLimiter enforces a per-caller creation budget over a rolling window.
// It records the timestamp of every accepted creation and denies once the
// window already holds perHour of them, so a caller can never exceed the cap
// inside any 60-minute span. Process-local: counters reset on restart and are
// not shared across instances, an accepted limitation for a single-instance
// deployment.
type CallerLimiter struct {
	mu      sync.Mutex
	perHour int
	window  time.Duration
	history map[string][]time.Time

	now func() time.Time
}

func NewCallerLimiter(perHour int) *CallerLimiter {
	if perHour <= 0 {
		perHour = 10
	}
	return &CallerLimiter{
		perHour: perHour,
		window:  time.Hour,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether the caller may create another registration now, and
// records the creation when it may. When denied, retryAfter is how long until
// the oldest recorded creation leaves the window. remaining is the number of
// creations still available in the window.
func (l *CallerLimiter) Allow(caller string) (ok bool, retryAfter time.Duration, remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.history[caller][:0]
	for _, t := range l.history[caller] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.perHour {
		l.history[caller] = recent
		return false, recent[0].Add(l.window).Sub(now), 0
	}

	l.history[caller] = append(recent, now)
	return true, 0, l.perHour - len(l.history[caller])
}
