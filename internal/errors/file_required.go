package errors

import "net/http"

var ErrFileRequired = &Exception{
	Message:    "file is required",
	StatusCode: http.StatusBadRequest,
}
