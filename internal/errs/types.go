package errs

import (
	"net/http"
)

func statusCode(status int) string {
	return MakeUpperCaseWithUnderscores(http.StatusText(status))
}

func NewUnauthorizedError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     statusCode(http.StatusUnauthorized),
		Message:  message,
		Status:   http.StatusUnauthorized,
		Override: override,
	}
}

func NewForbiddenError(message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     statusCode(http.StatusForbidden),
		Message:  message,
		Status:   http.StatusForbidden,
		Override: override,
	}
}

// NewBadRequestError builds a 400. A nil code defaults to "BAD_REQUEST".
func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	formattedCode := statusCode(http.StatusBadRequest)
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
		Action:   action,
	}
}

func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	formattedCode := statusCode(http.StatusNotFound)
	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

// NewInternalServerError carries only the generic status text.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:    statusCode(http.StatusInternalServerError),
		Message: http.StatusText(http.StatusInternalServerError),
		Status:  http.StatusInternalServerError,
	}
}
