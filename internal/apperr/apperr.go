// Package apperr defines the error type shared by the record store, the
// authenticator and the entity controllers.
//
// Every error carries a Kind, which maps to exactly one HTTP status code, an
// Op naming the operation that produced it and an optional wrapped cause.
// Layers add context by wrapping rather than by rewriting messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error.
type Kind int

const (
	Internal Kind = iota
	InvalidArgument
	Unauthorized
	NotFound
	AlreadyExists
	NotPermitted
	Expired
	NoMatch
	PaymentFailed
)

var kindNames = map[Kind]string{
	Internal:        "internal",
	InvalidArgument: "invalid argument",
	Unauthorized:    "unauthorized",
	NotFound:        "not found",
	AlreadyExists:   "already exists",
	NotPermitted:    "not permitted",
	Expired:         "expired",
	NoMatch:         "no match",
	PaymentFailed:   "payment failed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case InvalidArgument:
		return http.StatusPreconditionFailed // 412
	case Unauthorized:
		return http.StatusForbidden // 403
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists:
		return http.StatusUnavailableForLegalReasons // 451
	case NotPermitted:
		return http.StatusMethodNotAllowed
	case Expired:
		return http.StatusPreconditionRequired // 428
	case NoMatch:
		return http.StatusNotAcceptable
	case PaymentFailed:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// Error is the structured error returned across package boundaries.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "" && e.Err != nil:
		b.WriteString(e.Message)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Kind.String())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a new error without a cause.
func E(kind Kind, op, message string) error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Errorf builds a new error with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a new error of the given kind around cause.
func Wrap(kind Kind, op, message string, cause error) error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// Annotate records that err passed through op. The kind of err is kept.
// A nil err stays nil.
func Annotate(err error, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// Internal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status is shorthand for KindOf(err).Status().
func Status(err error) int {
	return KindOf(err).Status()
}
