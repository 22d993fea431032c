package inference

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is returned by every Service operation. Code drives the HTTP status;
// the remaining fields are echoed in the error body when set.
type Error struct {
	Code string
	Msg  string

	// invalid value
	Field string
	Value any

	// missing features
	Missing  []string
	Received []string
	Expected []string

	Err error
}

const (
	Unknown            = "Unknown"
	BadRequest         = "BadRequest"
	ModelUnavailable   = "ModelUnavailable"
	ServiceUnavailable = "ServiceUnavailable"
	Internal           = "Internal"
)

func (e Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference: %s - %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("inference: %s - %s", e.Code, e.Msg)
}

func (e Error) Unwrap() error { return e.Err }

// CanonicalCode returns the error's code, Unknown for foreign errors.
func CanonicalCode(err error) string {
	var e Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unknown
}

// HTTPStatus maps an error code to the status returned to HTTP and MQTT callers.
func HTTPStatus(err error) int {
	switch CanonicalCode(err) {
	case BadRequest:
		return http.StatusBadRequest
	case ModelUnavailable, ServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errNoData() Error {
	return Error{Code: BadRequest, Msg: "No data received"}
}

func errModelUnavailable(k Kind) Error {
	return Error{Code: ModelUnavailable, Msg: fmt.Sprintf("%s model not loaded", k.Title())}
}

func errInternal(msg string, cause error) Error {
	return Error{Code: Internal, Msg: msg, Err: cause}
}

// ErrorBody is the JSON shape of every non-200 response.
type ErrorBody struct {
	Error    string   `json:"error"`
	Field    string   `json:"field,omitempty"`
	Value    any      `json:"value,omitempty"`
	Missing  []string `json:"missing,omitempty"`
	Received []string `json:"received,omitempty"`
	Expected []string `json:"expected,omitempty"`
}

// NewErrorBody renders err for callers. Internal details of foreign errors are kept as the message,
// never a stack trace.
func NewErrorBody(err error) ErrorBody {
	var e Error
	if !errors.As(err, &e) {
		return ErrorBody{Error: err.Error()}
	}
	msg := e.Msg
	if e.Code == Internal && e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return ErrorBody{
		Error:    msg,
		Field:    e.Field,
		Value:    e.Value,
		Missing:  e.Missing,
		Received: e.Received,
		Expected: e.Expected,
	}
}
