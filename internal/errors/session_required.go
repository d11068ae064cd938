package errors

import "net/http"

var ErrSessionRequired = &Exception{
	Message:    "session cookie is required",
	StatusCode: http.StatusUnauthorized,
}
