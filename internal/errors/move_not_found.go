package errors

import "net/http"

var ErrMoveNotFound = &Exception{
	Message:    "move not found",
	StatusCode: http.StatusNotFound,
}
