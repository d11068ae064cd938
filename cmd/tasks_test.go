package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"case-board.com/case-board/internal/board"
	"case-board.com/case-board/internal/presenter"
	"case-board.com/case-board/internal/priority"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

func TestPrintPage(t *testing.T) {
	now := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	due := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "1", Title: "File motion", CaseRef: "Doe v. Roe", Status: constants.StatusToDo, DueDate: &due},
		{ID: "2", Title: "Intake", Status: constants.StatusToDo},
	}

	var out bytes.Buffer
	page := presenter.Present(priority.AnnotateAll(tasks, now), constants.FilterAll, 1, 10)
	if err := printPage(&out, page); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, 2 rows and footer, got %q", out.String())
	}
	if !strings.HasPrefix(lines[1], "High") || !strings.Contains(lines[1], "2026-10-17") {
		t.Errorf("unexpected first row %q", lines[1])
	}
	if !strings.Contains(lines[2], "no date") {
		t.Errorf("expected undated row last, got %q", lines[2])
	}
	if lines[3] != "page 1/1 (2 tasks, filter All)" {
		t.Errorf("unexpected footer %q", lines[3])
	}
}

func TestPrintColumns(t *testing.T) {
	now := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{ID: "1", Title: "Done thing", Status: constants.StatusCompleted},
	}

	var out bytes.Buffer
	if err := printColumns(&out, board.Columns(tasks, now)); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{"== To Do (0)", "== In Progress (0)", "== Completed (1)", "Done thing"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output %q", want, got)
		}
	}
}
