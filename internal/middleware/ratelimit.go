package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleetsheet/internal/apperr"
)

// RateLimitMiddleware limits requests per client IP over a sliding window.
type RateLimitMiddleware struct {
	requests map[string][]time.Time // IP -> request times
	mu       sync.Mutex
	now      func() time.Time

	// trustProxy keys clients on X-Forwarded-For / X-Real-IP. Only set it
	// when a reverse proxy overwrites those headers.
	trustProxy bool
}

// NewRateLimitMiddleware creates a new rate limiting middleware. Forwarding
// headers are honored only when trustProxyHeaders is set.
func NewRateLimitMiddleware(trustProxyHeaders bool) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests:   make(map[string][]time.Time),
		now:        time.Now,
		trustProxy: trustProxyHeaders,
	}
}

// RateLimit admits at most maxRequests per client IP within window.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r, m.trustProxy)
			if !m.allow(clientIP, maxRequests, window) {
				log.WithField("client_ip", clientIP).Warn("Rate limit exceeded")
				w.Header().Set("Retry-After", formatSeconds(window))
				apperr.Write(w, apperr.RateLimited("rate limit exceeded, retry in "+formatSeconds(window)+"s"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) allow(clientIP string, maxRequests int, window time.Duration) bool {
	now := m.now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.requests[clientIP][:0]
	for _, ts := range m.requests[clientIP] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= maxRequests {
		m.requests[clientIP] = kept
		return false
	}
	m.requests[clientIP] = append(kept, now)

	// drop idle clients so the map does not grow without bound
	for ip, times := range m.requests {
		if len(times) > 0 && !times[len(times)-1].After(windowStart) {
			delete(m.requests, ip)
		}
	}
	return true
}

func formatSeconds(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
			return strings.TrimSpace(strings.Split(ip, ",")[0])
		}
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return strings.TrimSpace(ip)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
