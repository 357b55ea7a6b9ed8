package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var whitelistedIPs = map[string]bool{
	"127.0.0.1": true,
}

// limiterIdle is how long a client's limiter survives without requests.
const limiterIdle = 10 * time.Minute

// RateLimitMiddleware limits each client IP to rps requests per second
// with the given burst. Limiters of idle clients are evicted.
func RateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	return rateLimit(rps, burst, cache.New(limiterIdle, time.Minute))
}

func rateLimit(rps float64, burst int, limiters *cache.Cache) func(http.Handler) http.Handler {
	var mu sync.Mutex

	getLimiter := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		limiter, ok := limiters.Get(ip)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
		// every request pushes the expiry back
		limiters.SetDefault(ip, limiter)
		return limiter.(*rate.Limiter)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if whitelistedIPs[ip] {
				next.ServeHTTP(w, r)
				return
			}

			if !getLimiter(ip).Allow() {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
