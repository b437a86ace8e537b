package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrUnauthorized matches a 401 response: the token is missing or expired.
	ErrUnauthorized = errors.New("not authenticated")

	// ErrNotFound matches a 404 response.
	ErrNotFound = errors.New("not found")

	// ErrNetwork indicates the server could not be reached.
	ErrNetwork = errors.New("server unreachable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrInvalidResponse indicates a 2xx body that could not be decoded.
	ErrInvalidResponse = errors.New("invalid server response")
)

// APIError is a non-2xx response. Detail is the server's message, shown to
// users verbatim.
type APIError struct {
	Status    int
	Detail    string
	Errors    []string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Violation is one failed struct-tag rule.
type Violation struct {
	Field string
	Rule  string
}

// ValidationError reports a payload rejected before it was sent.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + " (" + v.Rule + ")"
	}
	return "invalid payload: " + strings.Join(parts, ", ")
}

// Has reports whether field failed any rule.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

func newValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating payload: %w", err)
	}
	out := &ValidationError{Violations: make([]Violation, len(verrs))}
	for i, fe := range verrs {
		out.Violations[i] = Violation{Field: fe.Field(), Rule: fe.Tag()}
	}
	return out
}

// errorBody covers the three detail shapes the server emits: a plain
// string, a list of field errors, or an object with a message and row
// errors.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Msg string `json:"msg"`
}

type messageDetail struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func parseAPIError(status int, body []byte, requestID string) *APIError {
	e := &APIError{Status: status, RequestID: requestID}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		e.Detail = strings.TrimSpace(string(body))
		if len(e.Detail) > 200 || strings.HasPrefix(e.Detail, "<") {
			e.Detail = ""
		}
		return e
	}

	raw := bytes.TrimSpace(eb.Detail)
	switch {
	case len(raw) > 0 && raw[0] == '"':
		_ = json.Unmarshal(raw, &e.Detail)
	case len(raw) > 0 && raw[0] == '[':
		var fields []fieldError
		if json.Unmarshal(raw, &fields) == nil {
			msgs := make([]string, 0, len(fields))
			for _, f := range fields {
				if f.Msg != "" {
					msgs = append(msgs, f.Msg)
				}
			}
			e.Detail = strings.Join(msgs, "; ")
		}
	case len(raw) > 0 && raw[0] == '{':
		var md messageDetail
		if json.Unmarshal(raw, &md) == nil {
			e.Detail = md.Message
			e.Errors = md.Errors
		}
	}
	return e
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func errorCode(err error) string {
	var apiErr *APIError
	var valErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrNetwork):
		return "UNAVAILABLE"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidResponse):
		return "INVALID_RESPONSE"
	case errors.As(err, &valErr):
		return "INVALID_PAYLOAD"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("HTTP_%d", apiErr.Status)
	default:
		return "UNKNOWN"
	}
}
