// Package apperr defines the typed errors shared by the billing core and its
// transports. Each error carries a Kind (what class of failure it is) and a
// machine-readable Code; display text is chosen at the boundary, never here.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation decisions.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthenticated
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindIntegrity:
		return "integrity"
	default:
		return "internal"
	}
}

// Code is a stable identifier for a specific failure.
type Code string

const (
	CodeInvalidSubtotal  Code = "INVALID_SUBTOTAL"
	CodeInvalidTax       Code = "INVALID_TAX"
	CodeInvalidTip       Code = "INVALID_TIP"
	CodeZeroSubtotal     Code = "ZERO_SUBTOTAL"
	CodeNegativeItemCost Code = "NEGATIVE_ITEM_COST"
	CodeMissingTitle     Code = "MISSING_TITLE"
	CodeMissingPayer     Code = "MISSING_PAYER"

	CodePayerNotFound    Code = "PAYER_NOT_FOUND"
	CodeSplitterNotFound Code = "SPLITTER_NOT_FOUND"
	CodeBillNotFound     Code = "BILL_NOT_FOUND"
	CodeAccountNotFound  Code = "ACCOUNT_NOT_FOUND"

	CodeUsernameTooShort Code = "USERNAME_TOO_SHORT"
	CodePasswordTooShort Code = "PASSWORD_TOO_SHORT"
	CodeUsernameTaken    Code = "USERNAME_TAKEN"
	CodeStaleBill        Code = "STALE_BILL"

	CodeUserNotFound     Code = "USER_NOT_FOUND"
	CodePasswordMismatch Code = "PASSWORD_MISMATCH"
	CodeNotAuthenticated Code = "NOT_AUTHENTICATED"
	CodeNotParticipant   Code = "NOT_PARTICIPANT"

	CodeDirectorySync Code = "DIRECTORY_SYNC_FAILED"
	CodeInternal      Code = "INTERNAL"
)

// Error is the error type returned by the core packages.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so callers can compare against templates
// such as &apperr.Error{Code: apperr.CodeBillNotFound}.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

func newf(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation reports bad or missing input.
func Validation(code Code, format string, args ...any) *Error {
	return newf(KindValidation, code, format, args...)
}

// NotFound reports an unknown username or identifier.
func NotFound(code Code, format string, args ...any) *Error {
	return newf(KindNotFound, code, format, args...)
}

// Conflict reports a uniqueness or version conflict.
func Conflict(code Code, format string, args ...any) *Error {
	return newf(KindConflict, code, format, args...)
}

// Forbidden reports an authenticated caller acting on something it is not part of.
func Forbidden(code Code, format string, args ...any) *Error {
	return newf(KindForbidden, code, format, args...)
}

// Unauthenticated reports a missing or failed credential check.
func Unauthenticated(code Code, format string, args ...any) *Error {
	return newf(KindUnauthenticated, code, format, args...)
}

// Integrity wraps a partial fan-out failure after a successful primary write.
func Integrity(err error, format string, args ...any) *Error {
	e := newf(KindIntegrity, CodeDirectorySync, format, args...)
	e.Err = err
	return e
}

// Internal wraps an unexpected failure.
func Internal(err error, format string, args ...any) *Error {
	e := newf(KindInternal, CodeInternal, format, args...)
	e.Err = err
	return e
}

// KindOf returns the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the Code of err, or CodeInternal when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MessageOf returns the message of err without its code prefix or cause.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
