// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation_failed"
	KindForbidden  Kind = "forbidden"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

type Detail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a recoverable domain error. Its Message is safe to show to the
// caller; anything that is not an *Error is treated as internal.
type Error struct {
	Kind    Kind
	Message string
	Details []Detail
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Option func(*Error)

func WithDetails(details ...Detail) Option {
	return func(e *Error) { e.Details = append(e.Details, details...) }
}

func WithErr(err error) Option {
	return func(e *Error) { e.Err = err }
}

func New(kind Kind, message string, opts ...Option) error {
	e := &Error{Kind: kind, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func NotFound(message string, opts ...Option) error {
	return New(KindNotFound, message, opts...)
}

func Validation(message string, opts ...Option) error {
	return New(KindValidation, message, opts...)
}

func Forbidden(message string, opts ...Option) error {
	return New(KindForbidden, message, opts...)
}

func Conflict(message string, opts ...Option) error {
	return New(KindConflict, message, opts...)
}

func NewCampaignNotFound(id int64) error {
	return NotFound(fmt.Sprintf("campaign with ID %d not found", id))
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
