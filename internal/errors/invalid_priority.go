package errors

import "net/http"

var ErrInvalidPriority = &Exception{
	Message:    "invalid priority filter",
	StatusCode: http.StatusBadRequest,
}
