// Package result holds the uniform envelope every operation handler returns.
package result

import "fmt"

// Kind classifies a failure so the transport boundary can map it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindInvalidCredentials
	KindDuplicate
	KindTenantRequired
	KindTooManyAttempts
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindDuplicate:
		return "duplicate"
	case KindTenantRequired:
		return "tenant_required"
	case KindTooManyAttempts:
		return "too_many_attempts"
	default:
		return "internal"
	}
}

// Messages shared between handlers and the boundary.
const (
	MsgValidationFailed   = "validation failed"
	MsgTenantRequired     = "tenant context is required"
	MsgUnauthenticated    = "unauthenticated"
	MsgForbidden          = "forbidden"
	MsgInternal           = "an error occurred while processing your request"
	MsgInvalidCredentials = "invalid email or password"
)

// Failure is the failed variant. Cause is kept for logging only and is never
// rendered to callers.
type Failure struct {
	Kind        Kind
	Message     string
	FieldErrors map[string][]string
	Cause       error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error { return f.Cause }

// Result is either Success(data) or a Failure, never both.
type Result[T any] struct {
	data    T
	failure *Failure
}

func Success[T any](data T) Result[T] {
	return Result[T]{data: data}
}

func Fail[T any](kind Kind, message string) Result[T] {
	return Result[T]{failure: &Failure{Kind: kind, Message: message}}
}

func Failf[T any](kind Kind, format string, args ...any) Result[T] {
	return Fail[T](kind, fmt.Sprintf(format, args...))
}

// Invalid builds a validation failure carrying every field violation.
func Invalid[T any](fieldErrors map[string][]string) Result[T] {
	return Result[T]{failure: &Failure{
		Kind:        KindValidation,
		Message:     MsgValidationFailed,
		FieldErrors: fieldErrors,
	}}
}

// Internal wraps an unexpected error. The message is generic on purpose.
func Internal[T any](err error) Result[T] {
	return Result[T]{failure: &Failure{Kind: KindInternal, Message: MsgInternal, Cause: err}}
}

func (r Result[T]) IsSuccess() bool { return r.failure == nil }

func (r Result[T]) Data() T { return r.data }

// Failure returns nil for a successful result.
func (r Result[T]) Failure() *Failure { return r.failure }

// Outcome is a short label used for metrics and logs.
func (r Result[T]) Outcome() string {
	if r.failure == nil {
		return "success"
	}
	return r.failure.Kind.String()
}
