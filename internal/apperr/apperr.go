// Package apperr defines the error kinds every usecase reports and their
// mapping onto HTTP and gRPC status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindNotFound        Kind = "NOT_FOUND"
	KindOutOfStock      Kind = "OUT_OF_STOCK"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindInternal        Kind = "INTERNAL"
)

// Error carries a kind, a translatable message id and the English fallback
// text. ProductID is set for stock failures tied to one product.
type Error struct {
	Kind      Kind
	MessageID string
	Message   string
	Data      map[string]any
	ProductID string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(messageID, message string) *Error {
	return &Error{Kind: KindValidation, MessageID: messageID, Message: message}
}

func NotFound(messageID, message string) *Error {
	return &Error{Kind: KindNotFound, MessageID: messageID, Message: message}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, MessageID: "error.unauthenticated", Message: message}
}

// Internal wraps a storage or infrastructure fault. The cause stays
// available to logs through Unwrap but is never shown to callers.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, MessageID: "error.internal", Message: "internal error", Err: err}
}

// NoAssociation is returned when an operation runs without a resolved
// association.
func NoAssociation() *Error {
	return NotFound("association.not_found", "no association")
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the kind of err. Errors that are not *Error are INTERNAL.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage is the untranslated text safe to show a caller. Causes
// are never included.
func PublicMessage(err error) string {
	if e, ok := As(err); ok && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindOutOfStock:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func GRPCCode(kind Kind) codes.Code {
	switch kind {
	case KindValidation:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindOutOfStock:
		return codes.FailedPrecondition
	case KindUnauthenticated:
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}
