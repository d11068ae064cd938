package http

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"case-board.com/case-board/internal/board"
	dto "case-board.com/case-board/internal/data_models"
	apperrors "case-board.com/case-board/internal/errors"
	"case-board.com/case-board/internal/http/validators"
	"case-board.com/case-board/internal/notify"
	"case-board.com/case-board/internal/priority"
	"case-board.com/case-board/internal/session"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"

	defaultMoveLimit = 50
)

type Sessions interface {
	Get(ctx context.Context, key string, user model.SessionUser) (*session.Session, error)
	Len() int
}

// MoveLister reads the move journal.
type MoveLister interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]model.MoveRecord, error)
}

type Handler struct {
	sessions   Sessions
	moves      MoveLister
	cookieName string
	now        func() time.Time
	log        *log.Entry
}

func NewHandler(sessions Sessions, moves MoveLister, cookieName string) *Handler {
	return &Handler{
		sessions:   sessions,
		moves:      moves,
		cookieName: cookieName,
		now:        time.Now,
		log:        log.WithField("component", "http"),
	}
}

func (h *Handler) session(c echo.Context) (*session.Session, error) {
	cookie, err := c.Cookie(h.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, apperrors.ErrSessionRequired
	}
	user := model.SessionUser{
		ID:   c.Request().Header.Get(HeaderUserID),
		Name: c.Request().Header.Get(HeaderUserName),
	}
	return h.sessions.Get(c.Request().Context(), cookie.Value, user)
}

func (h *Handler) GetBoard(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"columns":  board.Columns(s.Store.Snapshot(), h.now()),
		"loadedAt": s.Store.LoadedAt(),
	})
}

// ListTasks renders the list view. A priority change resets the page, in
// which case a page parameter sent along with it is ignored.
func (h *Handler) ListTasks(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(err)
	}

	filterChanged := false
	if raw, ok := queryParam(c, "priority"); ok {
		f, err := constants.ParsePriorityFilter(raw)
		if err != nil {
			return h.fail(apperrors.ErrInvalidPriority)
		}
		filterChanged = s.View.SetFilter(f)
	}

	if raw, ok := queryParam(c, "page"); ok && !filterChanged {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return h.fail(apperrors.ErrInvalidPage)
		}
		s.View.SetPage(page)
	}

	return c.JSON(http.StatusOK, s.View.Render(priority.AnnotateAll(s.Store.Snapshot(), h.now())))
}

// MoveTask applies a drag-and-drop move. By default it answers 202 as soon as
// the board shows the move; with wait=true it answers once the case API did.
func (h *Handler) MoveTask(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(err)
	}

	var req dto.MoveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	move, err := validators.ValidateMoveRequest(&req)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	pending, err := s.Board.MoveTask(ctx, move)
	if err != nil {
		return h.fail(err)
	}

	resp := echo.Map{
		"taskId":       move.TaskID,
		"from":         pending.From,
		"targetColumn": move.TargetColumn,
		"outcome":      model.OutcomePending,
	}

	if c.QueryParam("wait") == "true" {
		outcome, moveErr := pending.Wait(ctx)
		resp["outcome"] = outcome
		if moveErr != nil {
			resp["error"] = apperrors.Message(moveErr)
		}
		return c.JSON(http.StatusOK, resp)
	}

	select {
	case <-pending.Done():
		outcome, _ := pending.Wait(ctx)
		resp["outcome"] = outcome
		return c.JSON(http.StatusOK, resp)
	default:
		return c.JSON(http.StatusAccepted, resp)
	}
}

func (h *Handler) Refresh(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(err)
	}

	if err := s.Board.Refresh(c.Request().Context()); err != nil {
		return h.fail(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count":    s.Store.Len(),
		"loadedAt": s.Store.LoadedAt(),
	})
}

func (h *Handler) ListMoves(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(err)
	}
	if h.moves == nil {
		return c.JSON(http.StatusOK, echo.Map{"count": 0, "moves": []model.MoveRecord{}})
	}

	limit := defaultMoveLimit
	if raw, ok := queryParam(c, "limit"); ok {
		if limit, err = strconv.Atoi(raw); err != nil {
			return h.fail(apperrors.ErrInvalidPage)
		}
	}

	moves, err := h.moves.ListBySession(c.Request().Context(), s.ID, limit)
	if err != nil {
		return h.fail(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(moves),
		"moves": moves,
	})
}

func (h *Handler) CreateDraft(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(err)
	}

	var req dto.DraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	title, p, err := validators.ValidateDraftRequest(&req)
	if err != nil {
		return err
	}

	draft, err := board.NewDraft(s.User(), title, p, h.now())
	if err != nil {
		return h.fail(err)
	}

	return c.JSON(http.StatusOK, draft)
}

func (h *Handler) UploadAttachment(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(err)
	}

	taskID := c.Param("id")
	if _, ok := s.Store.Get(taskID); !ok {
		return h.fail(apperrors.ErrTaskNotFound)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return h.fail(apperrors.ErrFileRequired)
	}
	file, err := header.Open()
	if err != nil {
		return h.fail(err)
	}
	defer file.Close()

	ctx := c.Request().Context()
	if err := s.API.UploadAttachment(ctx, taskID, header.Filename, file, c.FormValue("password")); err != nil {
		s.Hub.Notify(ctx, notify.New(s.ID, notify.LevelError, taskID, "Failed to upload attachment: "+apperrors.Message(err)))
		return h.fail(err)
	}

	s.Hub.Notify(ctx, notify.New(s.ID, notify.LevelSuccess, taskID, "Attachment uploaded"))
	if err := s.Store.Load(ctx, s.API); err != nil {
		h.log.WithError(err).WithField("session", s.ID).Warn("reload after upload failed")
	}

	return c.JSON(http.StatusCreated, echo.Map{"taskId": taskID, "filename": header.Filename})
}

func (h *Handler) DownloadAttachment(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(err)
	}

	att, err := s.API.DownloadAttachment(c.Request().Context(), c.Param("id"), c.QueryParam("password"))
	if err != nil {
		return h.fail(err)
	}
	defer att.Body.Close()

	contentType := att.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename}))
	return c.Stream(http.StatusOK, contentType, att.Body)
}

func (h *Handler) ListNotifications(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(err)
	}

	recent := s.Hub.Recent()
	return c.JSON(http.StatusOK, echo.Map{
		"count":         len(recent),
		"notifications": recent,
	})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

// fail maps err to an HTTP error. Unexpected errors are logged and hidden
// behind a generic message.
func (h *Handler) fail(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	code := apperrors.StatusCode(err)
	if code == http.StatusInternalServerError {
		h.log.WithError(err).Error("request failed")
		return echo.NewHTTPError(code, "internal error")
	}
	return echo.NewHTTPError(code, apperrors.Message(err))
}

func queryParam(c echo.Context, name string) (string, bool) {
	values, ok := c.QueryParams()[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
