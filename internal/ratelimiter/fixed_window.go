package ratelimiter

import (
	"sync"
	"time"
)

// Limiter decides whether a client identified by key may proceed.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

type window struct {
	count int
	start time.Time
}

// FixedWindowRateLimiter allows limit requests per key in each window. A
// client's window starts with its first request.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*window //string:client IP
	limit   int
	window  time.Duration
	now     func() time.Time
	done    chan struct{}
}

func NewFixedWindowLimiter(limit int, w time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  w,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *FixedWindowRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Lock()
			now := rl.now()
			for k, w := range rl.clients {
				if now.Sub(w.start) >= rl.window {
					delete(rl.clients, k)
				}
			}
			rl.Unlock()
		case <-rl.done:
			return
		}
	}
}

// Stop ends the background eviction loop.
func (rl *FixedWindowRateLimiter) Stop() {
	close(rl.done)
}

// Allow reports whether key may proceed and, if not, how long until its
// window resets.
func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.clients[key] = &window{count: 1, start: now}
		return true, 0
	}

	if w.count < rl.limit {
		w.count++
		return true, 0
	}
	return false, rl.window - now.Sub(w.start)
}
