package errors

import "net/http"

var ErrReopenNotAllowed = &Exception{
	Message:    "completed tasks cannot be reopened",
	StatusCode: http.StatusConflict,
}
