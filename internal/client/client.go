// Package client talks to the external case API on behalf of one board
// session. Credentials are the session cookie; no other auth scheme is used.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	apperrors "case-board.com/case-board/internal/errors"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

// Endpoints are the paths of the task endpoints relative to the base URL.
type Endpoints struct {
	Tasks      string
	Update     string
	Upload     string
	Attachment string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Tasks:      "/tasks",
		Update:     "/tasks",
		Upload:     "/tasks/upload",
		Attachment: "/tasks/attachment",
	}
}

type Client struct {
	baseURL    string
	endpoints  Endpoints
	httpClient *http.Client
	loc        *time.Location
	log        *log.Entry
}

type Option func(*Client)

// WithHTTPClient replaces the transport client. A cookie jar is installed on
// it when it has none.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLocation sets the zone calendar dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.loc = loc }
}

func WithLogger(entry *log.Entry) Option {
	return func(c *Client) { c.log = entry }
}

// New creates a client whose requests carry the given session cookie. The
// underlying http.Client has no timeout; callers bound requests with ctx.
func New(baseURL string, endpoints Endpoints, session *http.Cookie, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid case API url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid case API url %q", baseURL)
	}

	c := &Client{
		baseURL:   base.String(),
		endpoints: endpoints,
		loc:       time.Local,
		log:       log.WithField("component", "client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.httpClient.Jar = jar
	}
	if session != nil && session.Value != "" {
		cookie := *session
		if cookie.Path == "" {
			cookie.Path = "/"
		}
		c.httpClient.Jar.SetCookies(base, []*http.Cookie{&cookie})
	}

	return c, nil
}

// ListTasks fetches the session's tasks. Records that fail validation are
// skipped and logged.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	const op = "list tasks"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.endpoints.Tasks, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperrors.RequestError{Op: op, StatusCode: resp.StatusCode, Err: decodeAPIError(resp)}
	}

	var payload any
	dec := sonic.ConfigStd.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	records, err := listRecords(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// The board keys tasks by id, so only the first record per id is kept.
	tasks := make([]model.Task, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		task, warnings, err := coerceTask(rec, c.loc)
		if err != nil {
			c.log.WithError(err).Warn("skipping task record")
			continue
		}
		if _, dup := seen[task.ID]; dup {
			c.log.WithField("task", task.ID).Warn("skipping duplicate task record")
			continue
		}
		seen[task.ID] = struct{}{}
		for _, w := range warnings {
			c.log.WithField("task", task.ID).Warn(w)
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

type statusUpdate struct {
	Status constants.TaskStatus `json:"status"`
}

// UpdateStatus sends PUT {update}/{id} with the new status.
func (c *Client) UpdateStatus(ctx context.Context, id string, status constants.TaskStatus) error {
	const op = "update task status"

	body, err := sonic.ConfigStd.Marshal(statusUpdate{Status: status})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.resourceURL(c.endpoints.Update, id), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperrors.RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperrors.RequestError{Op: op, StatusCode: resp.StatusCode, Err: decodeAPIError(resp)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// UploadAttachment posts a multipart form with file, taskId and an optional
// password.
func (c *Client) UploadAttachment(ctx context.Context, taskID, filename string, file io.Reader, password string) error {
	const op = "upload attachment"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("%s: read file: %w", op, err)
	}
	if err := w.WriteField("taskId", taskID); err != nil {
		return err
	}
	if password != "" {
		if err := w.WriteField("password", password); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.endpoints.Upload, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperrors.RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperrors.RequestError{Op: op, StatusCode: resp.StatusCode, Err: decodeAPIError(resp)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Attachment is a downloaded task file. The caller must close Body.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// DownloadAttachment fetches a task's file. A 401 maps to
// ErrPasswordRequired and a 403 to ErrWrongPassword.
func (c *Client) DownloadAttachment(ctx context.Context, taskID, password string) (*Attachment, error) {
	const op = "download attachment"

	u := c.resourceURL(c.endpoints.Attachment, taskID)
	if password != "" {
		u += "?" + url.Values{"password": {password}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.RequestError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		resp.Body.Close()
		return nil, &apperrors.RequestError{Op: op, StatusCode: resp.StatusCode, Err: apperrors.ErrPasswordRequired}
	case resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, &apperrors.RequestError{Op: op, StatusCode: resp.StatusCode, Err: apperrors.ErrWrongPassword}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		defer resp.Body.Close()
		return nil, &apperrors.RequestError{Op: op, StatusCode: resp.StatusCode, Err: decodeAPIError(resp)}
	}

	att := &Attachment{
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
		Body:        resp.Body,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		att.Filename = params["filename"]
	}
	if att.Filename == "" {
		att.Filename = taskID
	}
	return att, nil
}

func (c *Client) resourceURL(path, id string) string {
	return c.baseURL + strings.TrimRight(path, "/") + "/" + url.PathEscape(id)
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decodeAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var apiErr apiError
	if err := sonic.ConfigStd.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Message != "" {
			return fmt.Errorf("case API: %s", apiErr.Message)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("case API: %s", apiErr.Error)
		}
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
