package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newLimitedEcho(limit int, keys ...KeyFunc) *echo.Echo {
	e := echo.New()
	e.Use(RateLimiter(limit, time.Minute, keys...))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	return e
}

func TestRateLimiter_PerIP(t *testing.T) {
	e := newLimitedEcho(2)

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected other IP to pass, got %d", rec.Code)
	}
}

func TestRateLimiter_PerCookie(t *testing.T) {
	e := newLimitedEcho(1, KeyByCookie("sid"))

	send := func(cookie string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "sid", Value: cookie})
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := send("a"); got != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", got)
	}
	if got := send("b"); got != http.StatusOK {
		t.Fatalf("expected other session from the same IP to pass, got %d", got)
	}
	if got := send("a"); got != http.StatusTooManyRequests {
		t.Fatalf("expected second request of session a to be limited, got %d", got)
	}
}
