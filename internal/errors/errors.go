package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the workflows and handlers. The upstream
// client assigns a kind at the HTTP boundary; everything above matches on it
// instead of inspecting status codes or backend message strings.
type Kind int

const (
	KindNetwork Kind = iota
	KindAuth
	KindValidation
	KindConflict
	KindUpload
	KindUnknownStatus
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUpload:
		return "upload"
	case KindUnknownStatus:
		return "unknown_status"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "unknown"
	}
}

// Error carries the kind, a user-facing message and the wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match any *Error of the same kind, so the exported
// sentinels below work as match targets.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinels for errors.Is matching.
var (
	ErrNetwork       = &Error{Kind: KindNetwork, Message: "request could not reach the server"}
	ErrAuth          = &Error{Kind: KindAuth, Message: "session expired, please log in again"}
	ErrValidation    = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrConflict      = &Error{Kind: KindConflict, Message: "operation conflicts with current state"}
	ErrUpload        = &Error{Kind: KindUpload, Message: "file was rejected"}
	ErrUnknownStatus = &Error{Kind: KindUnknownStatus, Message: "backend returned an unrecognized status"}
	ErrInvalidState  = &Error{Kind: KindInvalidState, Message: "operation not allowed in current state"}
)

// KindOf returns the kind of err if it is (or wraps) an *Error,
// defaulting to KindNetwork for untyped transport failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNetwork
}

// UserMessage returns the message meant for display. Untyped errors fall
// back to a generic message so backend internals never leak to the UI.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "something went wrong, please try again"
}
