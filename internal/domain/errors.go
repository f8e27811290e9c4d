package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Item errors
	ErrMsgItemNotFound = "item not found"

	// Lookup errors
	ErrMsgLookupNotFound = "lookup entry not found"

	// Auth errors
	ErrMsgUnauthenticated = "authentication required"
	ErrMsgForbidden       = "not allowed"
	ErrMsgUserNotFound    = "user not found"

	// Storage errors
	ErrMsgObjectNotFound = "object not found"

	// Input errors
	ErrMsgInvalidInput = "invalid input"

	// Database/System errors
	ErrMsgDatabaseError       = "database error"
	ErrMsgSchemaNotNegotiated = "no supported item column layout"
)

// Common domain errors
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	ErrItemNotFound      = errors.New(ErrMsgItemNotFound)
	ErrLookupNotFound    = errors.New(ErrMsgLookupNotFound)
	ErrUnauthenticated   = errors.New(ErrMsgUnauthenticated)
	ErrForbidden         = errors.New(ErrMsgForbidden)
	ErrUserNotFound      = errors.New(ErrMsgUserNotFound)
	ErrObjectNotFound    = errors.New(ErrMsgObjectNotFound)
	ErrInvalidInput      = errors.New(ErrMsgInvalidInput)
	ErrDatabaseError     = errors.New(ErrMsgDatabaseError)
	ErrSchemaUnsupported = errors.New(ErrMsgSchemaNotNegotiated)
)

// ErrorKind classifies failures crossing the client core boundary
type ErrorKind int

const (
	// KindUnknown is never produced by Classify; it marks an unclassified error
	KindUnknown ErrorKind = iota
	// KindValidation is a local, field-scoped, pre-network failure
	KindValidation
	// KindAuthorization is a 401/403; the user must sign in again
	KindAuthorization
	// KindSchemaValidation is a 400 from the backend with field issues
	KindSchemaValidation
	// KindTransportUnavailable is a 404/405/network failure/timeout on the primary transport
	KindTransportUnavailable
	// KindUpstreamData is a 5xx or malformed response
	KindUpstreamData
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindSchemaValidation:
		return "schema_validation"
	case KindTransportUnavailable:
		return "transport_unavailable"
	case KindUpstreamData:
		return "upstream_data"
	}
	return "unknown"
}

// Error is a classified failure. Message is safe to show to users; Err holds diagnostic detail.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Fields  map[string]string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a classified error, or KindUnknown
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a classified error of kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// KindForStatus maps an HTTP status of a failed response to an error kind
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindSchemaValidation
	case status == http.StatusNotFound || status == http.StatusMethodNotAllowed ||
		status == http.StatusRequestTimeout || status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		return KindTransportUnavailable
	default:
		return KindUpstreamData
	}
}

// NewValidationError builds a KindValidation error from field messages
func NewValidationError(op string, fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Message: "Please correct the highlighted fields.",
		Fields:  fields,
	}
}
