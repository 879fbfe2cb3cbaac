package resilience

import (
	"context"
	"sync"
	"time"
)

// SlidingWindowLimiter admits at most Limit calls inside any rolling Window.
// It keeps the timestamps of admitted calls and suspends the caller until the
// oldest one leaves the window.
type SlidingWindowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
	now    func() time.Time
	sleep  Sleeper
}

func NewSlidingWindowLimiter(cfg RateLimitConfig) *SlidingWindowLimiter {
	defaults := DefaultRateLimitConfig()
	if cfg.Limit < 1 {
		cfg.Limit = defaults.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	return &SlidingWindowLimiter{
		limit:  cfg.Limit,
		window: cfg.Window,
		stamps: make([]time.Time, 0, cfg.Limit),
		now:    time.Now,
		sleep:  SleepContext,
	}
}

// WithClock swaps the time source and sleeper, used by tests to run the
// limiter on a fake clock.
func (l *SlidingWindowLimiter) WithClock(now func() time.Time, sleep Sleeper) *SlidingWindowLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now != nil {
		l.now = now
	}
	if sleep != nil {
		l.sleep = sleep
	}
	return l
}

// Wait blocks until a call may be issued and records it. It returns how long
// the caller was suspended.
func (l *SlidingWindowLimiter) Wait(ctx context.Context) (time.Duration, error) {
	var waited time.Duration
	for {
		l.mu.Lock()
		now := l.now()
		l.evictLocked(now)
		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return waited, nil
		}
		delay := l.stamps[0].Add(l.window).Sub(now)
		sleep := l.sleep
		l.mu.Unlock()

		if delay <= 0 {
			continue
		}
		if err := sleep(ctx, delay); err != nil {
			return waited, err
		}
		waited += delay
	}
}

// InWindow reports how many admitted calls are still inside the window.
func (l *SlidingWindowLimiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictLocked(l.now())
	return len(l.stamps)
}

func (l *SlidingWindowLimiter) Limit() int {
	return l.limit
}

func (l *SlidingWindowLimiter) Window() time.Duration {
	return l.window
}

func (l *SlidingWindowLimiter) evictLocked(now time.Time) {
	keepFrom := 0
	for keepFrom < len(l.stamps) && now.Sub(l.stamps[keepFrom]) >= l.window {
		keepFrom++
	}
	if keepFrom > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[keepFrom:]...)
	}
}
