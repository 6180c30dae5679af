package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/harvestiq/harvestiq/internal/models"
)

type slidingWindow struct {
	mu       sync.Mutex
	requests []time.Time
	limit    int
	window   time.Duration
}

func (sw *slidingWindow) allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	cutoff := time.Now().Add(-sw.window)
	kept := sw.requests[:0]
	for _, t := range sw.requests {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	sw.requests = kept

	if len(sw.requests) >= sw.limit {
		return false
	}
	sw.requests = append(sw.requests, time.Now())
	return true
}

// RateLimit applies a per-client sliding one-minute window keyed by IP.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	var mu sync.Mutex
	windows := make(map[string]*slidingWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			mu.Lock()
			sw, ok := windows[host]
			if !ok {
				sw = &slidingWindow{limit: perMinute, window: time.Minute}
				windows[host] = sw
			}
			mu.Unlock()

			if !sw.allow() {
				w.Header().Set("Retry-After", strconv.Itoa(60))
				models.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
