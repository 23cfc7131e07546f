package authmodel

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies a failed API call.
type Kind int

const (
	KindNetwork Kind = iota + 1
	KindServer
	KindValidation
	KindInvalidCredentials
	KindInvalidCode
	KindUnauthorized
)

// Sentinels matched by errors.Is against an *Error of the same Kind.
var (
	ErrNetwork            = errors.New("network error")
	ErrServer             = errors.New("server error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrUnauthorized       = errors.New("unauthorized")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindServer:
		return ErrServer
	case KindValidation:
		return ErrValidation
	case KindInvalidCredentials:
		return ErrInvalidCredentials
	case KindInvalidCode:
		return ErrInvalidCode
	case KindUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single error type surfaced by API calls. Message is shown to
// the user verbatim: it is either the backend's "message" field or a generic
// per-operation text.
type Error struct {
	Kind       Kind
	StatusCode int   // 0 when no response was received
	Message    string
	Err        error // underlying cause, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error of the given kind.
func NewError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, StatusCode: status, Message: message}
}

// NetworkError wraps a transport failure.
func NetworkError(message string, cause error) *Error {
	return &Error{Kind: KindNetwork, Message: message, Err: cause}
}

// ValidationError is raised client-side before any request is made.
func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// MessageFromBody returns the "message" field of a JSON error body, or fallback
// when the body is not JSON or has no message.
func MessageFromBody(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		return fallback
	}
	return payload.Message
}
