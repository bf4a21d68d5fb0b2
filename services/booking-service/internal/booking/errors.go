package booking

import (
	"errors"
	"strings"
)

type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeServiceNotFound     Code = "SERVICE_NOT_FOUND"
	CodeStaffNotFound       Code = "STAFF_NOT_FOUND"
	CodeBusinessHoursClosed Code = "BUSINESS_HOURS_CLOSED"
	CodeTimeConflict        Code = "TIME_CONFLICT"
	CodeBookingNotFound     Code = "BOOKING_NOT_FOUND"
	CodeInvalidStatus       Code = "INVALID_STATUS"
	CodeInternal            Code = "INTERNAL_ERROR"
)

type FieldError struct {
	Field   string
	Message string
}

// Error is the typed failure every Coordinator operation returns. Message is
// safe to show to callers; internal causes are only logged.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return string(e.Code) + ": " + e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return string(e.Code) + ": " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return e.cause }

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func fieldError(field, msg string) *Error {
	return &Error{Code: CodeValidation, Message: "request validation failed", Fields: []FieldError{{Field: field, Message: msg}}}
}

func internalError(cause error) *Error {
	return &Error{Code: CodeInternal, Message: "internal error", cause: cause}
}

// CodeOf returns the code of err, INTERNAL_ERROR for untyped errors and ""
// for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeInternal
}
