package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mohitbudhwar0786/earning-website/utils"
)

type timestamps []int64 // unix nanos

// IPRateLimiter is a per-IP sliding window limiter with trusted-proxy
// support. State lives in memory and is pruned periodically.
type IPRateLimiter struct {
	max         int
	window      time.Duration
	trustedCIDR []string
	now         func() time.Time

	mu    sync.Mutex
	state map[string]timestamps

	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter allows maxReq requests per window for each client IP.
// Forwarding headers are honoured only from trustedProxies (IPs or CIDRs).
func NewIPRateLimiter(maxReq int, window time.Duration, trustedProxies []string) *IPRateLimiter {
	l := &IPRateLimiter{
		max:         maxReq,
		window:      window,
		trustedCIDR: trustedProxies,
		now:         time.Now,
		state:       make(map[string]timestamps),
		stop:        make(chan struct{}),
	}
	go l.cleanupLoop(time.Minute)
	return l
}

// Close stops the cleanup goroutine.
func (l *IPRateLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// clientIPGeneric returns the client IP string. X-Forwarded-For / X-Real-IP
// are honoured only when the remote addr is inside one of trustedCIDR.
func clientIPGeneric(r *http.Request, trustedCIDR []string) string {
	remoteHost, _, _ := net.SplitHostPort(r.RemoteAddr)
	remoteIP := net.ParseIP(remoteHost)
	trusted := false
	for _, cidr := range trustedCIDR {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if strings.Contains(cidr, "/") {
			if _, ipnet, err := net.ParseCIDR(cidr); err == nil {
				if remoteIP != nil && ipnet.Contains(remoteIP) {
					trusted = true
					break
				}
			}
			continue
		}
		if ip := net.ParseIP(cidr); ip != nil && remoteIP != nil && ip.Equal(remoteIP) {
			trusted = true
			break
		}
	}
	if trusted {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			return strings.TrimSpace(parts[0])
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			return strings.TrimSpace(xr)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// allow records a hit for ip and returns the hits inside the window and the
// oldest of them.
func (l *IPRateLimiter) allow(ip string, now int64) (count int, oldest int64) {
	cutoff := now - int64(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	var filtered timestamps
	for _, ts := range l.state[ip] {
		if ts >= cutoff {
			filtered = append(filtered, ts)
		}
	}
	filtered = append(filtered, now)
	l.state[ip] = filtered
	return len(filtered), filtered[0]
}

// Middleware applies per-IP limits and sets rate-limit headers.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIPGeneric(r, l.trustedCIDR)
		now := l.now().UnixNano()
		count, oldest := l.allow(ip, now)

		remaining := l.max - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.max))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > l.max {
			// the oldest hit leaves the window first
			retryAfter := int((oldest + int64(l.window) - now) / int64(time.Second))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
				Success: false,
				Message: "Too many requests, try again later",
				Data:    map[string]int{"retry_after_seconds": retryAfter},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *IPRateLimiter) cleanupLoop(every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-tick.C:
			l.prune()
		}
	}
}

// prune drops IPs with no hits inside the window.
func (l *IPRateLimiter) prune() {
	cutoff := l.now().UnixNano() - int64(l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, arr := range l.state {
		var filtered timestamps
		for _, ts := range arr {
			if ts >= cutoff {
				filtered = append(filtered, ts)
			}
		}
		if len(filtered) == 0 {
			delete(l.state, k)
		} else {
			l.state[k] = filtered
		}
	}
}
