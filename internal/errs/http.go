package errs

import "strings"

// FieldError is a validation failure on a single request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ActionType string

const (
	ActionTypeRedirect ActionType = "redirect"
)

// Action is an optional hint telling the client what to do next.
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the JSON error body returned by every endpoint.
//
// Override marks messages that are safe to show as-is; the global error
// handler replaces the rest with the generic status text.
type HTTPError struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Status   int          `json:"status"`
	Override bool         `json:"override"`
	Errors   []FieldError `json:"errors"`
	Action   *Action      `json:"action"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError regardless of code or status.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of e carrying message.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	cp := *e
	cp.Message = message
	return &cp
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
