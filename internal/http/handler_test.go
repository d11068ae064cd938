package http

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"case-board.com/case-board/internal/client"
	apperrors "case-board.com/case-board/internal/errors"
	"case-board.com/case-board/internal/presenter"
	repository "case-board.com/case-board/internal/repositories"
	"case-board.com/case-board/internal/session"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

const cookieName = "connect.sid"

var now = time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)

func daysFromNow(d int) *time.Time {
	t := time.Date(2026, time.October, 16+d, 0, 0, 0, 0, time.UTC)
	return &t
}

type fakeAPI struct {
	mu        sync.Mutex
	tasks     []model.Task
	updateErr error
	uploads   []string
}

func (f *fakeAPI) ListTasks(ctx context.Context) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Task(nil), f.tasks...), nil
}

func (f *fakeAPI) UpdateStatus(ctx context.Context, id string, status constants.TaskStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateErr
}

func (f *fakeAPI) UploadAttachment(ctx context.Context, taskID, filename string, file io.Reader, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, taskID+"/"+filename)
	return nil
}

func (f *fakeAPI) DownloadAttachment(ctx context.Context, taskID, password string) (*client.Attachment, error) {
	if password == "" {
		return nil, &apperrors.RequestError{Op: "download attachment", StatusCode: http.StatusUnauthorized, Err: apperrors.ErrPasswordRequired}
	}
	return &client.Attachment{
		Filename:    "brief.pdf",
		ContentType: "application/pdf",
		Body:        io.NopCloser(strings.NewReader("%PDF")),
	}, nil
}

func setupBoard(t *testing.T, api *fakeAPI) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&model.MoveRecord{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	moves := repository.NewMoveRepository(db)
	manager := session.NewManager(session.Config{
		Dial:          func(string) (session.CaseAPI, error) { return api, nil },
		SweepInterval: time.Hour,
		PageSize:      2,
		Journal:       moves,
		Now:           func() time.Time { return now },
	})
	t.Cleanup(func() { manager.Shutdown(context.Background()) })

	h := NewHandler(manager, moves, cookieName)
	h.now = func() time.Time { return now }

	e := echo.New()
	Register(e, h, 1000)
	return e
}

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "1", Title: "File motion", Status: constants.StatusToDo, DueDate: daysFromNow(1)},
		{ID: "2", Title: "Call client", Status: constants.StatusToDo, DueDate: daysFromNow(4)},
		{ID: "3", Title: "Research", Status: constants.StatusInProgress, DueDate: daysFromNow(10)},
		{ID: "4", Title: "Closed", Status: constants.StatusCompleted, DueDate: daysFromNow(1)},
		{ID: "5", Title: "Someday", Status: constants.StatusToDo},
	}
}

func request(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(HeaderUserID, "u-7")
	req.Header.Set(HeaderUserName, "Sam")
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "abc"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := sonic.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	e := setupBoard(t, &fakeAPI{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBoardRequiresSession(t *testing.T) {
	e := setupBoard(t, &fakeAPI{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/board", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetBoard(t *testing.T) {
	e := setupBoard(t, &fakeAPI{tasks: sampleTasks()})

	rec := request(e, http.MethodGet, "/board", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Columns []struct {
			Status constants.TaskStatus `json:"status"`
			Tasks  []model.BoardTask    `json:"tasks"`
		} `json:"columns"`
	}
	decode(t, rec, &body)

	if len(body.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(body.Columns))
	}
	todo := body.Columns[0]
	if todo.Status != constants.StatusToDo || len(todo.Tasks) != 3 {
		t.Fatalf("unexpected todo column %+v", todo)
	}
	if todo.Tasks[0].ID != "1" || todo.Tasks[0].Priority != constants.PriorityHigh {
		t.Errorf("expected the high priority card first, got %+v", todo.Tasks[0])
	}
	if last := todo.Tasks[2]; last.ID != "5" || !last.NoDate || last.Priority != constants.PriorityLow {
		t.Errorf("expected undated card last with Low priority, got %+v", last)
	}
	if done := body.Columns[2].Tasks; len(done) != 1 || done[0].Priority != constants.PriorityNone {
		t.Errorf("completed cards carry no priority, got %+v", done)
	}
}

func TestListTasks_FilterAndPaging(t *testing.T) {
	e := setupBoard(t, &fakeAPI{tasks: sampleTasks()})

	var page presenter.Page
	rec := request(e, http.MethodGet, "/board/tasks?page=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &page)
	if page.Page != 2 || page.TotalItems != 5 || page.TotalPages != 3 || len(page.Items) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}

	rec = request(e, http.MethodGet, "/board/tasks?priority=Low&page=2", "")
	decode(t, rec, &page)
	if page.Page != 1 || page.Filter != constants.FilterLow {
		t.Fatalf("expected filter change to reset to page 1, got %+v", page)
	}
	for _, item := range page.Items {
		if item.Priority != constants.PriorityLow {
			t.Errorf("unexpected priority %s in Low filter", item.Priority)
		}
	}

	rec = request(e, http.MethodGet, "/board/tasks", "")
	decode(t, rec, &page)
	if page.Filter != constants.FilterLow {
		t.Errorf("expected the filter to persist in the session, got %s", page.Filter)
	}

	if rec := request(e, http.MethodGet, "/board/tasks?priority=urgent", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown priority, got %d", rec.Code)
	}
	if rec := request(e, http.MethodGet, "/board/tasks?page=0", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for page 0, got %d", rec.Code)
	}
}

type moveResponse struct {
	TaskID       string               `json:"taskId"`
	From         constants.TaskStatus `json:"from"`
	TargetColumn constants.TaskStatus `json:"targetColumn"`
	Outcome      model.MoveOutcome    `json:"outcome"`
	Error        string               `json:"error"`
}

func TestMoveTask_Confirmed(t *testing.T) {
	e := setupBoard(t, &fakeAPI{tasks: sampleTasks()})

	rec := request(e, http.MethodPost, "/board/moves?wait=true", `{"taskId":"1","targetColumn":"In Progress"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp moveResponse
	decode(t, rec, &resp)
	if resp.Outcome != model.OutcomeConfirmed || resp.From != constants.StatusToDo || resp.TargetColumn != constants.StatusInProgress {
		t.Fatalf("unexpected response %+v", resp)
	}

	var notes struct {
		Notifications []struct {
			Level   string `json:"level"`
			Message string `json:"message"`
		} `json:"notifications"`
	}
	decode(t, request(e, http.MethodGet, "/board/notifications", ""), &notes)
	if len(notes.Notifications) != 1 || notes.Notifications[0].Message != "Task moved to In Progress" {
		t.Errorf("unexpected notifications %+v", notes)
	}

	var journal struct {
		Count int                `json:"count"`
		Moves []model.MoveRecord `json:"moves"`
	}
	decode(t, request(e, http.MethodGet, "/board/moves", ""), &journal)
	if journal.Count != 1 || journal.Moves[0].Outcome != model.OutcomeConfirmed {
		t.Errorf("unexpected journal %+v", journal)
	}
}

func TestMoveTask_RejectedRollsBack(t *testing.T) {
	api := &fakeAPI{tasks: sampleTasks(), updateErr: &apperrors.RequestError{Op: "update task status", StatusCode: 500, Err: errors.New("boom")}}
	e := setupBoard(t, api)

	var resp moveResponse
	decode(t, request(e, http.MethodPost, "/board/moves?wait=true", `{"taskId":"2","targetColumn":"completed"}`), &resp)
	if resp.Outcome != model.OutcomeRolledBack || resp.Error != "the server rejected the request" {
		t.Fatalf("unexpected response %+v", resp)
	}

	var body struct {
		Columns []struct {
			Tasks []model.BoardTask `json:"tasks"`
		} `json:"columns"`
	}
	decode(t, request(e, http.MethodGet, "/board", ""), &body)
	if len(body.Columns[2].Tasks) != 1 {
		t.Errorf("expected the rejected move to be rolled back, completed column has %d cards", len(body.Columns[2].Tasks))
	}
}

func TestMoveTask_Errors(t *testing.T) {
	e := setupBoard(t, &fakeAPI{tasks: sampleTasks()})

	tests := []struct {
		body string
		want int
	}{
		{`{"taskId":"","targetColumn":"todo"}`, http.StatusBadRequest},
		{`{"taskId":"1","targetColumn":"archived"}`, http.StatusBadRequest},
		{`{"taskId":"404","targetColumn":"todo"}`, http.StatusNotFound},
		{`not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := request(e, http.MethodPost, "/board/moves", tt.body); rec.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.body, tt.want, rec.Code)
		}
	}

	var resp moveResponse
	rec := request(e, http.MethodPost, "/board/moves", `{"taskId":"1","targetColumn":"todo"}`)
	decode(t, rec, &resp)
	if rec.Code != http.StatusOK || resp.Outcome != model.OutcomeNoop {
		t.Errorf("expected no-op for same column, got %d %+v", rec.Code, resp)
	}
}

func TestCreateDraft(t *testing.T) {
	e := setupBoard(t, &fakeAPI{})

	rec := request(e, http.MethodPost, "/board/drafts", `{"title":" Prepare exhibits ","priority":"High"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var draft model.TaskDraft
	decode(t, rec, &draft)
	want := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	if !draft.DueDate.Equal(want) || draft.TaskedBy != "u-7" || draft.Title != "Prepare exhibits" {
		t.Errorf("unexpected draft %+v", draft)
	}

	if rec := request(e, http.MethodPost, "/board/drafts", `{"priority":"urgent"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestDownloadAttachment(t *testing.T) {
	e := setupBoard(t, &fakeAPI{tasks: sampleTasks()})

	if rec := request(e, http.MethodGet, "/board/tasks/1/attachment", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without password, got %d", rec.Code)
	}

	rec := request(e, http.MethodGet, "/board/tasks/1/attachment?password=pw", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "%PDF" {
		t.Fatalf("unexpected download %d %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderContentDisposition), "brief.pdf") {
		t.Errorf("expected filename in disposition, got %q", rec.Header().Get(echo.HeaderContentDisposition))
	}
}

func TestStreamNotifications(t *testing.T) {
	e := setupBoard(t, &fakeAPI{tasks: sampleTasks()})
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/board/notifications/stream", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "abc"})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	move, _ := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/board/moves?wait=true", strings.NewReader(`{"taskId":"3","targetColumn":"done"}`))
	move.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	move.AddCookie(&http.Cookie{Name: cookieName, Value: "abc"})
	moveResp, err := http.DefaultClient.Do(move)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	moveResp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		if !strings.Contains(line, "Task moved to Completed") {
			t.Fatalf("unexpected event %q", line)
		}
		return
	}
	t.Fatalf("stream ended without an event: %v", scanner.Err())
}
