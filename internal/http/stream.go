package http

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

// StreamNotifications pushes the session's notifications as server-sent
// events until the client disconnects or the session is discarded.
func (h *Handler) StreamNotifications(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(err)
	}

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.String(http.StatusInternalServerError, "stream unsupported")
	}

	ch, cancel := s.Hub.Subscribe()
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := sonic.Marshal(n)
			if err != nil {
				h.log.WithError(err).Error("failed to encode notification")
				return nil
			}
			if _, err := res.Write([]byte("event: notification\nid: " + n.ID + "\ndata: ")); err != nil {
				return nil
			}
			if _, err := res.Write(data); err != nil {
				return nil
			}
			if _, err := res.Write([]byte("\n\n")); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
