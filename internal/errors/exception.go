package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Exception struct {
	Message    string
	StatusCode int
}

func (e *Exception) Error() string {
	return e.Message
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.Kind() {
		case KindTransport:
			return http.StatusBadGateway
		case KindUnauthorized:
			return reqErr.StatusCode
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Kind classifies failures of calls against the case API.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport means the request never completed.
	KindTransport
	// KindRejected means the server answered with a non-2xx status.
	KindRejected
	// KindUnauthorized is a 401/403 on a protected attachment.
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// RequestError wraps a failed call against the case API.
type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Kind() Kind {
	switch {
	case e.StatusCode == 0:
		return KindTransport
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return KindUnauthorized
	default:
		return KindRejected
	}
}

func KindOf(err error) Kind {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind()
	}
	return KindUnknown
}

// Message turns err into the text shown in a toast.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	switch KindOf(err) {
	case KindTransport:
		return "could not reach the server"
	case KindRejected:
		return "the server rejected the request"
	case KindUnauthorized:
		return "not authorized"
	}
	return err.Error()
}
