package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an engine failure for callers and for HTTP status mapping.
type Kind int

const (
	KindValidation Kind = iota + 1 // bad input, fully recoverable by the caller
	KindNotFound
	KindConflict  // the operation clashes with committed state; nothing changed
	KindInvariant // must never escape a committed unit of work
)

// Error is the typed failure surfaced at the service boundary.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Invariantf(format string, args ...any) *Error {
	return &Error{Kind: KindInvariant, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind carried by err, or 0 when err is untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// HTTPStatus maps a failure to the status code the API returns for it.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
