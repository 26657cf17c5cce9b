package mid

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MaxBody caps request bodies at n bytes.
func MaxBody(n int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientLimiter hands out one token bucket per client address and forgets
// clients idle for longer than ttl.
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	clients map[string]*clientEntry
	now     func() time.Time
}

type clientEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func (c *clientLimiter) allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.clients {
		if now.Sub(e.seen) > c.ttl {
			delete(c.clients, k)
		}
	}
	e, ok := c.clients[key]
	if !ok {
		e = &clientEntry{lim: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// RateLimit rejects requests with 429 once a client exceeds perSecond
// requests (with the given burst). Clients are keyed by remote IP.
func RateLimit(perSecond float64, burst int) Middleware {
	cl := &clientLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		ttl:     10 * time.Minute,
		clients: make(map[string]*clientEntry),
		now:     time.Now,
	}
	return rateLimit(cl)
}

func rateLimit(cl *clientLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cl.allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
