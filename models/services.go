// surodeals/models/services.go
package models

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// --- Stateful Services ---

// RateLimiter is the global per-IP token bucket applied to the whole API.
type RateLimiter struct {
	Mu       sync.RWMutex
	Limiters map[string]*rate.Limiter
	LastSeen map[string]time.Time

	every  time.Duration
	burst  int
	prune  time.Duration
	expire time.Duration
}

// NewRateLimiter creates and starts a new global rate limiter.
func NewRateLimiter(every time.Duration, burst int, prune, expire time.Duration) *RateLimiter {
	rl := &RateLimiter{
		Limiters: make(map[string]*rate.Limiter),
		LastSeen: make(map[string]time.Time),
		every:    every,
		burst:    burst,
		prune:    prune,
		expire:   expire,
	}
	go rl.cleanup()
	return rl
}

// GetLimiter retrieves or creates a rate limiter for a given IP address.
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.Mu.Lock()
	defer rl.Mu.Unlock()
	limiter, exists := rl.Limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(rl.every), rl.burst)
		rl.Limiters[ip] = limiter
	}
	rl.LastSeen[ip] = time.Now()
	return limiter
}

// cleanup periodically removes old entries from the rate limiter maps.
func (rl *RateLimiter) cleanup() {
	for range time.Tick(rl.prune) {
		rl.Mu.Lock()
		cutoff := time.Now().Add(-rl.expire)
		for ip, lastSeen := range rl.LastSeen {
			if lastSeen.Before(cutoff) {
				delete(rl.Limiters, ip)
				delete(rl.LastSeen, ip)
			}
		}
		rl.Mu.Unlock()
	}
}

// --- Fixed-Window Limiter ---

// Limiter scopes. Each scope keeps its own window per client IP.
const (
	ScopeAdCreate = "ad-create"
	ScopeContact  = "contact"
	ScopeLogin    = "login"
	ScopeRegister = "register"
)

type window struct {
	count int
	start time.Time
}

// WindowLimiter is a set of independent fixed-window counters keyed by
// (scope, client IP). The counter resets at each window boundary.
type WindowLimiter struct {
	mu      sync.Mutex
	windows map[string]map[string]*window
	limits  map[string]windowPolicy
	now     func() time.Time
}

type windowPolicy struct {
	max    int
	window time.Duration
}

// NewWindowLimiter creates a limiter with no scopes registered.
func NewWindowLimiter() *WindowLimiter {
	return &WindowLimiter{
		windows: make(map[string]map[string]*window),
		limits:  make(map[string]windowPolicy),
		now:     time.Now,
	}
}

// Register declares a scope's policy. Must be called before Allow for that scope.
func (wl *WindowLimiter) Register(scope string, max int, dur time.Duration) {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	wl.limits[scope] = windowPolicy{max: max, window: dur}
	wl.windows[scope] = make(map[string]*window)
}

// Allow records a hit for ip in the given scope and reports whether it is
// within the limit. retryAfter is the time until the window resets when the
// limit is exceeded.
func (wl *WindowLimiter) Allow(scope, ip string) (bool, time.Duration) {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	policy, ok := wl.limits[scope]
	if !ok {
		return true, 0
	}
	now := wl.now()

	w, exists := wl.windows[scope][ip]
	if !exists || now.Sub(w.start) >= policy.window {
		wl.windows[scope][ip] = &window{count: 1, start: now}
		return true, 0
	}

	if w.count >= policy.max {
		return false, policy.window - now.Sub(w.start)
	}
	w.count++
	return true, 0
}

// Reset clears the window for ip in the given scope. The login handler uses
// this so successful logins do not count against the failed-attempt window.
func (wl *WindowLimiter) Reset(scope, ip string) {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	if scoped, ok := wl.windows[scope]; ok {
		delete(scoped, ip)
	}
}

// Prune drops windows that ended before the current one began. Called from
// the analytics cleanup job; the maps are otherwise unbounded.
func (wl *WindowLimiter) Prune() {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	now := wl.now()
	for scope, scoped := range wl.windows {
		policy := wl.limits[scope]
		for ip, w := range scoped {
			if now.Sub(w.start) >= policy.window {
				delete(scoped, ip)
			}
		}
	}
}

// SetClock overrides the limiter's time source. Useful for tests.
func (wl *WindowLimiter) SetClock(now func() time.Time) {
	wl.mu.Lock()
	defer wl.mu.Unlock()
	wl.now = now
}
