package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// StatusClientClosedRequest marks requests abandoned by the caller before a
// response was written.
const StatusClientClosedRequest = 499

func NotFound(code string, err error) *Error   { return New(http.StatusNotFound, code, err) }
func BadRequest(code string, err error) *Error { return New(http.StatusBadRequest, code, err) }
func Conflict(code string, err error) *Error   { return New(http.StatusConflict, code, err) }
func Cancelled(err error) *Error               { return New(StatusClientClosedRequest, "request_cancelled", err) }

// As extracts an *Error from err's chain. Errors without one are reported as
// 500/internal_error so handlers always have something to render.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae
	}
	return New(http.StatusInternalServerError, "internal_error", err)
}
