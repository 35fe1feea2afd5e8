package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for HTTP mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindInvalidState
	KindInsufficientStock
	KindWindowExpired
	KindSignature
	KindGateway
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidState:
		return "invalid_state"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindWindowExpired:
		return "window_expired"
	case KindSignature:
		return "signature_mismatch"
	case KindGateway:
		return "gateway_unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified error. Field is set for validation errors that
// concern a single input field.
type Error struct {
	Kind  Kind
	Field string
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match two fault errors by kind.
func (e *Error) Is(target error) bool {
	var fe *Error
	if errors.As(target, &fe) {
		return fe.Kind == e.Kind
	}
	return false
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

// ValidationField reports a validation error attributed to one input field.
func ValidationField(field, format string, args ...any) *Error {
	e := newf(KindValidation, format, args...)
	e.Field = field
	return e
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return newf(KindInvalidState, format, args...)
}

// InsufficientStock names the offending product.
func InsufficientStock(product string, requested, available int) *Error {
	e := newf(KindInsufficientStock, "insufficient stock for %s: requested %d, available %d", product, requested, available)
	e.Field = product
	return e
}

func WindowExpired(format string, args ...any) *Error {
	return newf(KindWindowExpired, format, args...)
}

func Signature(format string, args ...any) *Error {
	return newf(KindSignature, format, args...)
}

// Gateway wraps an upstream payment-gateway failure.
func Gateway(cause error, format string, args ...any) *Error {
	e := newf(KindGateway, format, args...)
	e.cause = cause
	return e
}

// Wrap attaches a cause to a classified error.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	e := newf(kind, format, args...)
	e.cause = cause
	return e
}

// KindOf extracts the Kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// FieldOf extracts the field name from err, if any.
func FieldOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindSignature:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindInsufficientStock, KindWindowExpired:
		return http.StatusConflict
	case KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether the error message is safe to show to callers.
// Gateway and signature details are logged server-side only.
func Public(err error) bool {
	switch KindOf(err) {
	case KindSignature, KindGateway, KindUnknown:
		return false
	default:
		return true
	}
}
