package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// idleVisitor is how long a client's bucket is kept after its last request.
const idleVisitor = 10 * time.Minute

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	visitors   *gocache.Cache
	limit      rate.Limit
	burst      int
	trustProxy bool
	logger     *zerolog.Logger
}

// NewRateLimiter allows perMinute requests per minute per client, with
// bursts up to perMinute. When trustProxy is set the first X-Forwarded-For
// address identifies the client.
func NewRateLimiter(perMinute int, trustProxy bool, logger *zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		visitors:   gocache.New(idleVisitor, idleVisitor/2),
		limit:      rate.Limit(float64(perMinute) / 60),
		burst:      perMinute,
		trustProxy: trustProxy,
		logger:     logger,
	}
}

func (rl *RateLimiter) limiter(client string) *rate.Limiter {
	if v, ok := rl.visitors.Get(client); ok {
		rl.visitors.SetDefault(client, v)
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.visitors.Add(client, lim, gocache.DefaultExpiration); err != nil {
		// Lost the race with another request from the same client.
		if v, ok := rl.visitors.Get(client); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// reserve takes a token for client, or reports how long until one is free.
func (rl *RateLimiter) reserve(client string) (time.Duration, bool) {
	res := rl.limiter(client).Reserve()
	if !res.OK() {
		return time.Minute, false
	}
	if d := res.Delay(); d > 0 {
		res.Cancel()
		return d, false
	}
	return 0, true
}

// Visitors returns the number of tracked clients.
func (rl *RateLimiter) Visitors() int {
	return rl.visitors.ItemCount()
}

func (rl *RateLimiter) clientAddr(r *http.Request) string {
	if rl.trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit rejects requests over the client's budget with 429 and a
// Retry-After header.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := rl.clientAddr(r)
			wait, ok := rl.reserve(client)
			if !ok {
				rl.logger.Warn().
					Str("client", client).
					Str("path", r.URL.Path).
					Dur("retry_after", wait).
					Msg("Rate limit exceeded")

				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeJSONError(w, http.StatusTooManyRequests,
					`{"data":null,"error":{"code":"RATE_LIMITED","message":"Rate limit exceeded","details":"Too many requests. Please try again later."}}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
