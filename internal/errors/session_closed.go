package errors

import "net/http"

var ErrSessionClosed = &Exception{
	Message:    "session expired, please retry",
	StatusCode: http.StatusServiceUnavailable,
}
