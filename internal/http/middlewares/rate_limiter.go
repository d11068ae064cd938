package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c echo.Context) string

func KeyByIP(c echo.Context) string {
	return c.RealIP()
}

// KeyByCookie counts requests per session cookie and falls back to the
// client IP for requests without one.
func KeyByCookie(name string) KeyFunc {
	return func(c echo.Context) string {
		if cookie, err := c.Cookie(name); err == nil && cookie.Value != "" {
			return "session:" + cookie.Value
		}
		return "ip:" + c.RealIP()
	}
}

// RateLimiter allows limit requests per key in each fixed window. Without a
// key func requests are counted per client IP.
func RateLimiter(limit int, window time.Duration, keys ...KeyFunc) echo.MiddlewareFunc {
	type bucket struct {
		count int
		start time.Time
	}

	keyOf := KeyByIP
	if len(keys) > 0 && keys[0] != nil {
		keyOf = keys[0]
	}

	var (
		mu        sync.Mutex
		buckets   = make(map[string]*bucket)
		lastPrune time.Time
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()
			key := keyOf(c)

			mu.Lock()
			if now.Sub(lastPrune) > window {
				for k, b := range buckets {
					if now.Sub(b.start) > window {
						delete(buckets, k)
					}
				}
				lastPrune = now
			}

			b, ok := buckets[key]
			if !ok || now.Sub(b.start) > window {
				b = &bucket{start: now}
				buckets[key] = b
			}

			if b.count >= limit {
				retry := window - now.Sub(b.start)
				mu.Unlock()
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			b.count++
			mu.Unlock()

			return next(c)
		}
	}
}
