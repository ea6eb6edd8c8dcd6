package errors

import (
	"fmt"
	"strings"
)

var ErrMetadataParse = fmt.Errorf("metadata parse error")
var ErrInvalidKey = fmt.Errorf("invalid key")
var ErrUnknownProperty = fmt.Errorf("unknown property")
var ErrUnknownEntitySet = fmt.Errorf("unknown entity set")
var ErrService = fmt.Errorf("service error")
var ErrConcurrencyTokenMissing = fmt.Errorf("concurrency token missing")
var ErrConcurrencyConflict = fmt.Errorf("concurrency conflict")
var ErrTransport = fmt.Errorf("transport error")
var ErrTransportTimeout = fmt.Errorf("transport timeout")
var ErrNoQueryPending = fmt.Errorf("no query pending")
var ErrImmutableKey = fmt.Errorf("key property is immutable")
var ErrInvalidValue = fmt.Errorf("invalid value")
var ErrRegistryClosed = fmt.Errorf("registry closed")

type myError struct {
	msg    string
	target error
}

func (m myError) Error() string        { return m.msg }
func (m myError) Is(target error) bool { return target == m.target }

func NewMetadataParseError(msg string) error {
	return &myError{
		msg:    "metadata: " + msg,
		target: ErrMetadataParse,
	}
}

func NewInvalidKeyError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrInvalidKey,
	}
}

func NewUnknownPropertyError(entityType, property string) error {
	return &myError{
		msg:    fmt.Sprintf("entity type %s has no property named %s", entityType, property),
		target: ErrUnknownProperty,
	}
}

func NewUnknownEntitySetError(name string) error {
	return &myError{
		msg:    fmt.Sprintf("no entity set named %s in service metadata", name),
		target: ErrUnknownEntitySet,
	}
}

func NewImmutableKeyError(entityType, property string) error {
	return &myError{
		msg:    fmt.Sprintf("key property %s of %s cannot be changed once loaded from the service", property, entityType),
		target: ErrImmutableKey,
	}
}

func NewInvalidValueError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrInvalidValue,
	}
}

func NewTransportError(msg string) error {
	return &myError{
		msg:    msg,
		target: ErrTransport,
	}
}

// TransportTimeoutError also matches ErrTransport
type TransportTimeoutError struct {
	msg string
}

func NewTransportTimeoutError(msg string) error {
	return &TransportTimeoutError{msg: msg}
}

func (e TransportTimeoutError) Error() string { return e.msg }
func (e TransportTimeoutError) Is(target error) bool {
	return target == ErrTransportTimeout || target == ErrTransport
}

// ServiceError is returned for any non successful response that is not
// classified otherwise. Body holds the raw response for diagnostics.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
}

func NewServiceError(statusCode int, code, message string, body []byte) *ServiceError {
	return &ServiceError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Body:       body,
	}
}

func (e ServiceError) Error() string {
	msg := fmt.Sprintf("service responded with status code %d", e.StatusCode)
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e ServiceError) Is(target error) bool { return target == ErrService }

// ConcurrencyTokenMissingError is reported when a write needs a precondition
// but the entity carries no token. No request is sent in that case.
type ConcurrencyTokenMissingError struct {
	Resource string
}

func NewConcurrencyTokenMissingError(resource string) *ConcurrencyTokenMissingError {
	return &ConcurrencyTokenMissingError{Resource: resource}
}

func (e ConcurrencyTokenMissingError) Error() string {
	return fmt.Sprintf("refusing to write %s: missing client concurrency token", e.Resource)
}

func (e ConcurrencyTokenMissingError) Is(target error) bool {
	return target == ErrConcurrencyTokenMissing
}

// ConcurrencyConflictError is reported when the service rejects a write
// because the token sent in If-Match no longer matches its version.
type ConcurrencyConflictError struct {
	Resource string
	Token    string
	Code     string
	Message  string
	Body     []byte
}

func NewConcurrencyConflictError(resource, token, code, message string, body []byte) *ConcurrencyConflictError {
	return &ConcurrencyConflictError{
		Resource: resource,
		Token:    token,
		Code:     code,
		Message:  message,
		Body:     body,
	}
}

func (e ConcurrencyConflictError) Error() string {
	msg := fmt.Sprintf("concurrency conflict on %s with token %s", e.Resource, e.Token)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e ConcurrencyConflictError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// FlushError collects every failure from a single flush of pending changes.
type FlushError struct {
	Errors []error
}

func (e FlushError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}

	return fmt.Sprintf("%d changes failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e FlushError) Unwrap() []error { return e.Errors }
