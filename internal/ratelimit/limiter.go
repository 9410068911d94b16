package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Route is the limit applied to one method and path prefix.
type Route struct {
	Method string
	// Path matches exactly, or as a prefix when it ends with "/".
	Path   string
	Limit  int
	Window time.Duration
	Burst  int
}

// Config holds the API throttling settings.
type Config struct {
	Enabled       bool
	DefaultLimit  int
	DefaultWindow time.Duration
	Routes        []Route
	// IdleTTL drops buckets that have not been used for this long.
	IdleTTL time.Duration
}

// DefaultRoutes returns the limits for the recommendation API. Scrape cycles
// and CV ingestion call the embedding service and are the most expensive.
func DefaultRoutes() []Route {
	return []Route{
		{Method: "POST", Path: "/scrape", Limit: 6, Window: time.Hour, Burst: 1},
		{Method: "POST", Path: "/cv", Limit: 30, Window: time.Minute, Burst: 5},
		{Method: "DELETE", Path: "/users/", Limit: 30, Window: time.Minute, Burst: 5},
		{Method: "GET", Path: "/users/", Limit: 120, Window: time.Minute, Burst: 20},
		{Method: "GET", Path: "/health", Limit: 0},
	}
}

// DefaultConfig returns an enabled config with DefaultRoutes.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		DefaultLimit:  300,
		DefaultWindow: time.Minute,
		Routes:        DefaultRoutes(),
		IdleTTL:       time.Hour,
	}
}

// Info describes the outcome of a limiter check.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// Limiter throttles API clients per route.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	buckets  map[string]*tokenBucket
	lastSeen map[string]time.Time
}

// NewLimiter creates a limiter for cfg.
func NewLimiter(cfg Config) *Limiter {
	return &Limiter{
		cfg:      cfg,
		now:      time.Now,
		buckets:  make(map[string]*tokenBucket),
		lastSeen: make(map[string]time.Time),
	}
}

// Allow reports whether clientID may call method path now.
func (l *Limiter) Allow(clientID, method, path string) (bool, Info) {
	if !l.cfg.Enabled {
		return true, Info{Allowed: true}
	}

	route := l.match(method, path)
	if route.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	key := clientID + " " + route.Method + " " + route.Path
	bucket := l.bucket(key, route)

	allowed, remaining, wait := bucket.take()
	return allowed, Info{
		Allowed:    allowed,
		Limit:      route.Limit,
		Remaining:  remaining,
		ResetAfter: bucket.fullIn(),
		RetryAfter: wait,
	}
}

// Prune drops buckets idle for longer than IdleTTL and returns how many were removed.
func (l *Limiter) Prune() int {
	if l.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := l.now().Add(-l.cfg.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, seen := range l.lastSeen {
		if seen.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastSeen, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) bucket(key string, route Route) *tokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastSeen[key] = l.now()
	if b, ok := l.buckets[key]; ok {
		return b
	}

	burst := route.Burst
	if burst <= 0 {
		burst = route.Limit
	}
	b := newTokenBucket(burst, float64(route.Limit)/route.Window.Seconds(), l.now)
	l.buckets[key] = b
	return b
}

// match returns the configured route for method and path, or the default limit.
func (l *Limiter) match(method, path string) Route {
	for _, r := range l.cfg.Routes {
		if r.Method == method && r.Path == path {
			return r
		}
	}
	for _, r := range l.cfg.Routes {
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r
		}
	}
	return Route{Method: "*", Path: "*", Limit: l.cfg.DefaultLimit, Window: l.cfg.DefaultWindow}
}
