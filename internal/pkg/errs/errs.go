package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"voxpair/internal/pkg/logx"
)

// CustomError is the error structure used throughout the application.
// It carries a business code, the frame type used on WebSockets, a client
// message and an HTTP status.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Type is the outbound frame type; empty means TypeGeneric.
	Type string

	// Message is the user-friendly error description.
	Message string

	// Status is the HTTP status code used when the error ends an HTTP request.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// FrameType returns the frame type used to surface the error over a WebSocket.
func (e CustomError) FrameType() string {
	if e.Type == "" {
		return TypeGeneric
	}
	return e.Type
}

// NewError builds a *CustomError from a registered code. details are used as
// printf arguments when the message template has a placeholder; for ErrUnknown
// the first detail, if it is an error, is logged instead. Unregistered codes
// fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	switch {
	case code == ErrUnknown && len(details) > 0:
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
		}
	case len(details) > 0:
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Details provided for error, but message template has no formatting placeholders. Details ignored.",
				"code", code)
		}
	case strings.Contains(customErr.Message, "%"):
		customErr.Message = strings.TrimSpace(strings.SplitN(customErr.Message, "%", 2)[0])
		customErr.Message = strings.TrimSuffix(customErr.Message, ":")
	}

	return &customErr
}

// HasCode reports whether err is, or wraps, a CustomError with the given code.
func HasCode(err error, code int) bool {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code == code
	}
	return false
}

// From converts any error into a *CustomError, mapping foreign errors to fallback.
func From(err error, fallback int) *CustomError {
	if err == nil {
		return nil
	}

	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	return NewError(fallback, err)
}
