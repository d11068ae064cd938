package caseapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	middleware "case-board.com/case-board/internal/http/middlewares"
)

func Register(e *echo.Echo, h *Handler, cookieName string, rateLimitPerMinute int) {
	g := e.Group("", middleware.RateLimiter(rateLimitPerMinute, time.Minute), RequireCookie(cookieName))

	g.GET("/tasks", h.ListTasks)
	g.POST("/tasks", h.CreateTask)
	g.PUT("/tasks/:id", h.UpdateTask)
	g.POST("/tasks/upload", h.UploadAttachment)
	g.GET("/tasks/attachment/:id", h.DownloadAttachment)
}

// RequireCookie rejects requests that do not carry the session cookie. Any
// non-empty value is accepted.
func RequireCookie(name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(name)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "session cookie required")
			}
			return next(c)
		}
	}
}
