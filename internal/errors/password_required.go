package errors

import "net/http"

var ErrPasswordRequired = &Exception{
	Message:    "password required",
	StatusCode: http.StatusUnauthorized,
}
