package errors

import "net/http"

var ErrInvalidPage = &Exception{
	Message:    "page must be positive",
	StatusCode: http.StatusBadRequest,
}
