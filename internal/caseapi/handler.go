// Package caseapi is a development implementation of the case API the board
// consumes: task listing, status updates and password-protected attachments.
package caseapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	dto "case-board.com/case-board/internal/data_models"
	apperrors "case-board.com/case-board/internal/errors"
	"case-board.com/case-board/internal/http/validators"
	repository "case-board.com/case-board/internal/repositories"
	model "case-board.com/case-board/pkg/models"
)

const maxAttachmentBytes = 10 << 20

type Handler struct {
	tasks       *repository.TaskRepository
	attachments *repository.AttachmentRepository
	hasher      *PasswordHasher
	log         *log.Entry
}

func NewHandler(tasks *repository.TaskRepository, attachments *repository.AttachmentRepository, hasher *PasswordHasher) *Handler {
	return &Handler{
		tasks:       tasks,
		attachments: attachments,
		hasher:      hasher,
		log:         log.WithField("component", "caseapi"),
	}
}

func (h *Handler) ListTasks(c echo.Context) error {
	tasks, err := h.tasks.List(c.Request().Context())
	if err != nil {
		return h.fail(err, "failed to list tasks")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	input, err := validators.ValidateCreateTaskRequest(&req)
	if err != nil {
		return err
	}

	task, err := h.tasks.CreateTask(c.Request().Context(), input)
	if err != nil {
		return h.fail(err, "failed to create task")
	}

	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) UpdateTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "task id is required")
	}

	var req dto.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	status, err := validators.ValidateUpdateTaskRequest(&req)
	if err != nil {
		return err
	}

	task, err := h.tasks.UpdateStatus(c.Request().Context(), id, status)
	if err != nil {
		return h.fail(err, "failed to update task")
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) UploadAttachment(c echo.Context) error {
	taskID := strings.TrimSpace(c.FormValue("taskId"))
	if taskID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "taskId is required")
	}

	header, err := c.FormFile("file")
	if err != nil {
		return h.fail(apperrors.ErrFileRequired, "")
	}
	file, err := header.Open()
	if err != nil {
		return h.fail(err, "failed to read file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentBytes+1))
	if err != nil {
		return h.fail(err, "failed to read file")
	}
	if len(data) > maxAttachmentBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	contentType := header.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	att := &model.Attachment{
		TaskID:      taskID,
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}
	if password := c.FormValue("password"); password != "" {
		hash, err := h.hasher.Hash(password)
		if err != nil {
			return h.fail(err, "failed to store attachment")
		}
		att.PasswordHash = hash
	}

	if err := h.attachments.Save(c.Request().Context(), att); err != nil {
		return h.fail(err, "failed to store attachment")
	}

	h.log.WithFields(log.Fields{"task": taskID, "protected": len(att.PasswordHash) > 0}).Info("attachment stored")

	return c.JSON(http.StatusCreated, echo.Map{
		"taskId":             taskID,
		"filename":           att.Filename,
		"password_protected": len(att.PasswordHash) > 0,
	})
}

// DownloadAttachment answers 401 when a protected file is requested without
// a password and 403 when the password does not match.
func (h *Handler) DownloadAttachment(c echo.Context) error {
	att, err := h.attachments.FindByTaskID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(err, "failed to load attachment")
	}

	if len(att.PasswordHash) > 0 {
		password := c.QueryParam("password")
		if password == "" {
			return h.fail(apperrors.ErrPasswordRequired, "")
		}
		if !h.hasher.Verify(password, att.PasswordHash) {
			return h.fail(apperrors.ErrWrongPassword, "")
		}
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": att.Filename}))
	return c.Blob(http.StatusOK, att.ContentType, att.Data)
}

func (h *Handler) fail(err error, fallback string) error {
	var appErr *apperrors.Exception
	if errors.As(err, &appErr) {
		return echo.NewHTTPError(appErr.StatusCode, appErr.Message)
	}
	h.log.WithError(err).Error(fallback)
	return echo.NewHTTPError(http.StatusInternalServerError, fallback)
}
