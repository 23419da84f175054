package apperrors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound represents an error when a requested resource is not found.
type ErrNotFound struct {
	Resource string
	ID       interface{}
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s with ID %v not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is allows for error checking with errors.Is().
func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}

// NewNotFoundError creates a new ErrNotFound.
func NewNotFoundError(resource string, id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: resource,
		ID:       id,
	}
}

// ErrUpstream is returned when the metadata service or the companion backend
// cannot be reached, answers with a non-2xx status, or sends a malformed payload.
type ErrUpstream struct {
	Service    string // "metadata", "backend" or "recommend"
	Operation  string
	StatusCode int    // 0 when the request never got a response
	Status     string // HTTP status text, e.g. "503 Service Unavailable"
	// Malformed is set when a 2xx body could not be decoded
	Malformed bool
	Err       error
}

// Error implements the error interface.
func (e *ErrUpstream) Error() string {
	switch {
	case e.Malformed:
		return fmt.Sprintf("%s %s returned a malformed payload: %v", e.Service, e.Operation, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s failed with status %s", e.Service, e.Operation, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s %s failed: %v", e.Service, e.Operation, e.Err)
	default:
		return fmt.Sprintf("%s %s failed", e.Service, e.Operation)
	}
}

// Unwrap exposes the underlying transport or decoding error.
func (e *ErrUpstream) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrUpstream) Is(target error) bool {
	_, ok := target.(*ErrUpstream)
	return ok
}

// NewUpstreamStatusError creates an ErrUpstream for a non-2xx response.
func NewUpstreamStatusError(service, operation string, statusCode int, status string) *ErrUpstream {
	return &ErrUpstream{
		Service:    service,
		Operation:  operation,
		StatusCode: statusCode,
		Status:     status,
	}
}

// NewUpstreamTransportError creates an ErrUpstream for a request that failed without a usable response.
func NewUpstreamTransportError(service, operation string, err error) *ErrUpstream {
	return &ErrUpstream{
		Service:   service,
		Operation: operation,
		Err:       err,
	}
}

// NewUpstreamDecodeError creates an ErrUpstream for a successful response whose body could not be decoded.
func NewUpstreamDecodeError(service, operation string, err error) *ErrUpstream {
	return &ErrUpstream{
		Service:   service,
		Operation: operation,
		Malformed: true,
		Err:       err,
	}
}

// ErrValidation carries field level messages, keyed by field name.
type ErrValidation struct {
	Fields map[string][]string
}

// Error implements the error interface. Fields are listed in sorted order.
func (e *ErrValidation) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is allows for error checking with errors.Is().
func (e *ErrValidation) Is(target error) bool {
	_, ok := target.(*ErrValidation)
	return ok
}

// Add appends a message for field.
func (e *ErrValidation) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// NewValidationError creates an ErrValidation with a single field message.
func NewValidationError(field, message string) *ErrValidation {
	e := &ErrValidation{}
	e.Add(field, message)
	return e
}

// ErrAuth is returned when credentials are rejected or an operation requires a signed-in user.
type ErrAuth struct {
	Username string
	Reason   string
}

// Error implements the error interface.
func (e *ErrAuth) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "invalid username or password"
	}
	if e.Username != "" {
		return fmt.Sprintf("authentication failed for %q: %s", e.Username, reason)
	}
	return "authentication failed: " + reason
}

// Is allows for error checking with errors.Is().
func (e *ErrAuth) Is(target error) bool {
	_, ok := target.(*ErrAuth)
	return ok
}

// ErrPrecondition is a local policy violation detected before any network call.
type ErrPrecondition struct {
	Rule     string
	Required int
	Actual   int
}

// Error implements the error interface.
func (e *ErrPrecondition) Error() string {
	return fmt.Sprintf("precondition %q not met: need at least %d, have %d", e.Rule, e.Required, e.Actual)
}

// Is allows for error checking with errors.Is().
func (e *ErrPrecondition) Is(target error) bool {
	_, ok := target.(*ErrPrecondition)
	return ok
}

// NewMinLikedError reports a liked set that is too small to request recommendations.
func NewMinLikedError(required, actual int) *ErrPrecondition {
	return &ErrPrecondition{
		Rule:     "min_liked",
		Required: required,
		Actual:   actual,
	}
}
