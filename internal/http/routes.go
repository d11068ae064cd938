package http

import (
	"time"

	"github.com/labstack/echo/v4"

	middleware "case-board.com/case-board/internal/http/middlewares"
)

func Register(e *echo.Echo, h *Handler, rateLimitPerMinute int) {
	e.GET("/healthz", h.Health)

	g := e.Group("/board", middleware.RateLimiter(rateLimitPerMinute, time.Minute, middleware.KeyByCookie(h.cookieName)))
	g.GET("", h.GetBoard)
	g.GET("/tasks", h.ListTasks)
	g.POST("/moves", h.MoveTask)
	g.GET("/moves", h.ListMoves)
	g.POST("/refresh", h.Refresh)
	g.POST("/drafts", h.CreateDraft)
	g.POST("/tasks/:id/attachment", h.UploadAttachment)
	g.GET("/tasks/:id/attachment", h.DownloadAttachment)
	g.GET("/notifications", h.ListNotifications)
	g.GET("/notifications/stream", h.StreamNotifications)
}
