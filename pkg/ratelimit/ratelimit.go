// Package ratelimit throttles posting clients with a per-remote-host token
// bucket pool.
package ratelimit

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"messagewall/pkg/utils"
)

// Pool lazily creates one limiter per client key.
type Pool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

// NewPool returns a pool with the given refill rate and burst. Non-positive
// values fall back to 5 rps / burst 10.
func NewPool(rps float64, burst int) *Pool {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &Pool{m: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

// Allow reports whether the client identified by key may proceed.
func (p *Pool) Allow(key string) bool {
	p.mu.Lock()
	l, ok := p.m[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(p.rps), p.burst)
		p.m[key] = l
	}
	p.mu.Unlock()
	return l.Allow()
}

// Middleware rejects over-limit clients with 429 before the handler runs.
func (p *Pool) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !p.Allow(host) {
			utils.JSONError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
