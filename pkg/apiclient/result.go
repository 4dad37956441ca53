package apiclient

import (
	"storefront.app/pkg/errs"
)

// Result is the normalized outcome of a REST call. Exactly one of
// Data/Message (OK) or Error (!OK) is meaningful. Status is the HTTP status
// when a response arrived and 0 otherwise.
type Result[T any] struct {
	OK      bool
	Data    T
	Message string
	Error   string
	Status  int

	// set when the request was rejected before any network call
	invalid bool
}

const defaultFailure = "request failed"

// Success builds a successful result
func Success[T any](data T, message string) Result[T] {
	return Result[T]{OK: true, Data: data, Message: message}
}

// Failure builds a failed result. An empty message is replaced so callers
// can always show something.
func Failure[T any](message string, status int) Result[T] {
	if message == "" {
		message = defaultFailure
	}
	return Result[T]{Error: message, Status: status}
}

// Invalid builds the failed result for a request rejected before any
// network call.
func Invalid[T any](err error) Result[T] {
	msg := err.Error()
	if e, ok := err.(*errs.Error); ok {
		msg = e.Message
	}
	r := Failure[T](msg, 0)
	r.invalid = true
	return r
}

// Rejected reports whether the result failed local validation
func (r Result[T]) Rejected() bool {
	return r.invalid
}

// Err converts a failed result to a coded error; it is nil on success.
func (r Result[T]) Err() error {
	if r.OK {
		return nil
	}
	if r.invalid {
		return errs.Validation(r.Error)
	}
	return errs.FromStatus(r.Status, r.Error)
}

// recast carries a failure over to a result of another type
func recast[U, T any](r Result[T]) Result[U] {
	return Result[U]{Error: r.Error, Status: r.Status, invalid: r.invalid}
}
