package types

import "errors"

// errUnknown backs a Fail called with a nil error so a failed Result never
// reports an empty error.
var errUnknown = errors.New("unknown error")

// Result is the outcome of a network-touching operation: either a value or an
// error, never both. The zero Result is Ok with the zero value.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps an error. A nil err is replaced by a generic error.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = errUnknown
	}
	return Result[T]{err: err}
}

// IsOk reports whether the Result holds a value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Value returns the value and true on success, or the zero value and false.
func (r Result[T]) Value() (T, bool) {
	if r.err != nil {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Err returns the error of a failed Result, or nil.
func (r Result[T]) Err() error {
	return r.err
}

// Message returns the display message of a failed Result, or "".
func (r Result[T]) Message() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// Get unpacks the Result into Go's usual value, error pair.
func (r Result[T]) Get() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// Map transforms the value of a successful Result. Failures pass through.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.err != nil {
		return Fail[U](r.err)
	}
	return Ok(f(r.value))
}

// Then chains an operation that can itself fail. Failures short-circuit, so
// f is never called after an error.
func Then[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Fail[U](r.err)
	}
	return f(r.value)
}
