package validators

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	dto "case-board.com/case-board/internal/data_models"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

func ValidateMoveRequest(r *dto.MoveRequest) (model.Move, error) {
	id := strings.TrimSpace(r.TaskID)
	if id == "" {
		return model.Move{}, echo.NewHTTPError(http.StatusBadRequest, "taskId is required")
	}
	if r.TargetColumn == "" {
		return model.Move{}, echo.NewHTTPError(http.StatusBadRequest, "targetColumn is required")
	}
	status, err := constants.ParseStatus(r.TargetColumn)
	if err != nil {
		return model.Move{}, echo.NewHTTPError(http.StatusBadRequest, "targetColumn must be one of todo, in_progress, completed")
	}
	return model.Move{TaskID: id, TargetColumn: status}, nil
}

// ValidateDraftRequest returns the trimmed title and the chosen priority.
// The title may be empty; the form is only pre-filled.
func ValidateDraftRequest(r *dto.DraftRequest) (string, constants.Priority, error) {
	p, err := constants.ParsePriority(r.Priority)
	if err != nil || p == constants.PriorityNone {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "priority must be one of High, Mid, Low")
	}
	return strings.TrimSpace(r.Title), p, nil
}
