package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

var (
	errMissingID      = errors.New("record has no id")
	errUnexpectedBody = errors.New("unexpected task list payload")
)

// Field aliases seen across the case API's task views.
var (
	idKeys          = []string{"id", "task_id", "taskId"}
	titleKeys       = []string{"title", "name", "task_name", "taskName"}
	descriptionKeys = []string{"description", "task_description", "taskDescription"}
	caseKeys        = []string{"case", "case_ref", "case_name", "caseName", "case_id", "caseId"}
	assigneeKeys    = []string{"assignee", "assigned_to", "assignedTo"}
	taskedByKeys    = []string{"tasked_by", "taskedBy", "created_by", "createdBy"}
	dueKeys         = []string{"due_date", "dueDate"}
	completionKeys  = []string{"completion_date", "completionDate", "completed_at", "completedAt"}
	statusKeys      = []string{"status", "task_status", "taskStatus"}
	attachmentKeys  = []string{"attachment_path", "file_path", "filePath", "attachmentPath"}
	protectedKeys   = []string{"password_protected", "is_password_protected", "isPasswordProtected", "passwordProtected"}
	createdKeys     = []string{"created_at", "createdAt"}
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// listRecords accepts either a bare array or an object wrapping the array
// under "tasks" or "data".
func listRecords(payload any) ([]map[string]any, error) {
	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range []string{"tasks", "data"} {
			if arr, ok := v[key].([]any); ok {
				items = arr
				break
			}
		}
		if items == nil {
			return nil, errUnexpectedBody
		}
	case nil:
		return nil, nil
	default:
		return nil, errUnexpectedBody
	}

	records := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			records = append(records, m)
		}
	}
	return records, nil
}

// coerceTask validates one upstream record. Unknown statuses and missing ids
// reject the record; unparseable dates are dropped to nil.
func coerceTask(rec map[string]any, loc *time.Location) (model.Task, []string, error) {
	var warnings []string

	id := asString(pick(rec, idKeys))
	if id == "" {
		return model.Task{}, nil, errMissingID
	}

	status, err := constants.ParseStatus(asString(pick(rec, statusKeys)))
	if err != nil {
		return model.Task{}, nil, fmt.Errorf("task %s: %w", id, err)
	}

	task := model.Task{
		ID:                id,
		Title:             asString(pick(rec, titleKeys)),
		Description:       asString(pick(rec, descriptionKeys)),
		CaseRef:           asString(pick(rec, caseKeys)),
		Assignee:          asString(pick(rec, assigneeKeys)),
		TaskedBy:          asString(pick(rec, taskedByKeys)),
		Status:            status,
		AttachmentPath:    asString(pick(rec, attachmentKeys)),
		PasswordProtected: asBool(pick(rec, protectedKeys)),
	}

	if raw := asString(pick(rec, dueKeys)); raw != "" {
		if d, ok := asDate(raw, loc); ok {
			task.DueDate = &d
		} else {
			warnings = append(warnings, fmt.Sprintf("unparseable due date %q", raw))
		}
	}

	if status == constants.StatusCompleted {
		if raw := asString(pick(rec, completionKeys)); raw != "" {
			if d, ok := asDate(raw, loc); ok {
				task.CompletionDate = &d
			} else {
				warnings = append(warnings, fmt.Sprintf("unparseable completion date %q", raw))
			}
		}
	}

	if raw := asString(pick(rec, createdKeys)); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			task.CreatedAt = ts
		}
	}

	return task, warnings, nil
}

func pick(rec map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		// nested references such as {"id": 4, "name": "Smith v. Jones"}
		if name := asString(pick(t, []string{"name", "title", "label"})); name != "" {
			return name
		}
		return asString(pick(t, idKeys))
	}
	return fmt.Sprint(v)
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "y":
			return true
		}
	}
	return false
}

// asDate returns the calendar date of raw as midnight in loc.
func asDate(raw string, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}
