package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is one identity's counter.
type Window struct {
	Count   int
	ResetAt time.Time
}

// MemoryLimiter keeps windows in a mutex-guarded map. Windows are only
// removed by Sweep.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*Window
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*Window),
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (l *MemoryLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func (l *MemoryLimiter) Admit(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok {
		w = &Window{ResetAt: now.Add(window)}
		l.windows[key] = w
	}
	if now.After(w.ResetAt) {
		w.Count = 1
		w.ResetAt = now.Add(window)
	} else {
		w.Count++
	}
	return decide(int64(w.Count), limit, now, w.ResetAt), nil
}

// Sweep drops windows that have ended and returns how many were removed.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	removed := 0
	for key, w := range l.windows {
		if now.After(w.ResetAt) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked windows.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Run sweeps every interval until ctx is done.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
