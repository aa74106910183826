// Package errs defines the error taxonomy shared across the runtime:
// Validation, NotFound, Io, Parse, Provider, Cancelled, Approval, Config.
// Each wraps an underlying error and exposes Is/As compatibility via errors.Unwrap.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies which bucket of the taxonomy an error belongs to.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindIo         Kind = "io"
	KindParse      Kind = "parse"
	KindProvider   Kind = "provider"
	KindCancelled  Kind = "cancelled"
	KindApproval   Kind = "approval"
	KindConfig     Kind = "config"
)

// E is a typed error carrying a Kind, a message, an optional wrapped cause,
// and a Retryable flag (meaningful only for KindProvider).
type E struct {
	Kind      Kind
	Message   string
	Cause     error
	Retryable bool
}

func (e *E) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Cause }

func new_(k Kind, msg string, cause error) *E {
	return &E{Kind: k, Message: msg, Cause: cause}
}

func Validation(msg string, cause error) *E { return new_(KindValidation, msg, cause) }
func NotFound(msg string, cause error) *E   { return new_(KindNotFound, msg, cause) }
func Io(msg string, cause error) *E         { return new_(KindIo, msg, cause) }
func Parse(msg string, cause error) *E      { return new_(KindParse, msg, cause) }
func Cancelled(msg string) *E               { return new_(KindCancelled, msg, nil) }
func Approval(msg string) *E                { return new_(KindApproval, msg, nil) }
func Config(msg string, cause error) *E     { return new_(KindConfig, msg, cause) }

// Provider builds a provider-layer error; retryable marks transport/5xx
// failures that callers may retry with backoff.
func Provider(msg string, cause error, retryable bool) *E {
	e := new_(KindProvider, msg, cause)
	e.Retryable = retryable
	return e
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, k Kind) bool {
	var e *E
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
