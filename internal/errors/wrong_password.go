package errors

import "net/http"

var ErrWrongPassword = &Exception{
	Message:    "wrong password",
	StatusCode: http.StatusForbidden,
}
