package server

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"eve/pkg/logging"
)

const limiterCleanupInterval = 5 * time.Minute

// ipLimiter keeps one token bucket per client address.
type ipLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

// newIPLimiter returns a limiter allowing perSecond requests per address
// with the given burst. A non-positive rate disables limiting.
func newIPLimiter(perSecond float64, burst int) *ipLimiter {
	l := &ipLimiter{
		rate:        rate.Limit(perSecond),
		burst:       burst,
		lastCleanup: time.Now(),
	}
	if perSecond <= 0 {
		l.rate = rate.Inf
	}
	if l.burst < 1 {
		l.burst = 1
	}
	return l
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	l.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops buckets that have refilled completely, which means
// their address has been idle.
func (l *ipLimiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastCleanup) < limiterCleanupInterval {
		return
	}
	l.lastCleanup = time.Now()

	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}
		return true
	})
}

// wrap rejects requests over the limit with 429 and a Retry-After header.
func (l *ipLimiter) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		limiter := l.get(key)
		if !limiter.Allow() {
			reservation := limiter.Reserve()
			delay := reservation.Delay()
			reservation.Cancel()

			retryAfter := max(int(delay.Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			logging.FromContext(r.Context()).Warn("rate limit exceeded",
				"client", key, "endpoint", r.URL.Path, "retry_after", retryAfter)
			logging.Audit("auth_rate_limited", "Authentication attempts rate limited", "client", key)
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many authentication attempts, try again later"})
			return
		}
		next(w, r)
	}
}

// clientIP is the peer address of the connection. Forwarding headers are
// ignored since the proxy is meant to be reached directly.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
