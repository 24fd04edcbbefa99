package apperror

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error so the delivery layer can decide how to render it.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindPrecondition Kind = "precondition"
	KindNotFound     Kind = "not_found"
	KindUpstream     Kind = "upstream"
	KindForbidden    Kind = "forbidden"
)

// Error is the typed error returned by every usecase.
// Two errors are considered equal by errors.Is when Kind and Code match,
// so a sentinel still matches a copy decorated with durations or a cause.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Remaining time.Duration
	Elapsed   time.Duration
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Remaining > 0 {
		msg = fmt.Sprintf("%s (%s remaining)", msg, e.Remaining.Round(time.Second))
	}
	if e.Elapsed > 0 {
		msg = fmt.Sprintf("%s (%s elapsed)", msg, e.Elapsed.Round(time.Second))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithRemaining returns a copy carrying how long until the action becomes permitted.
func (e *Error) WithRemaining(d time.Duration) *Error {
	cp := *e
	cp.Remaining = d
	return &cp
}

// WithElapsed returns a copy carrying how long ago the action stopped being permitted.
func (e *Error) WithElapsed(d time.Duration) *Error {
	cp := *e
	cp.Elapsed = d
	return &cp
}

// Wrap returns a copy with cause attached.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

func Precondition(code, message string) *Error {
	return New(KindPrecondition, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Forbidden(code, message string) *Error {
	return New(KindForbidden, code, message)
}

// Upstream wraps a collaborator failure so the caller knows it may retry.
func Upstream(code, message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Code: code, Message: message, Err: cause}
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the Kind of err, or "" for untyped errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return ""
}
