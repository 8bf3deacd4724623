package app

import "fmt"

// Result is the outcome of loading a value from a remote source.
//
// A Result is in one of three states: not loaded (the zero value),
// loaded with a value, or failed with an error.
// This allows callers to distinguish an empty value from a value that failed to load.
type Result[T any] struct {
	value  T
	err    error
	loaded bool
}

// NewResult returns a loaded Result with a value.
func NewResult[T any](v T) Result[T] {
	return Result[T]{value: v, loaded: true}
}

// NewFailedResult returns a Result that failed with err.
func NewFailedResult[T any](err error) Result[T] {
	if err == nil {
		panic("failed result requires an error")
	}
	return Result[T]{err: err}
}

// ResultFrom returns a Result from the typical (value, error) return pair.
func ResultFrom[T any](v T, err error) Result[T] {
	if err != nil {
		return NewFailedResult[T](err)
	}
	return NewResult(v)
}

// IsLoaded reports whether the value was loaded successfully.
func (r Result[T]) IsLoaded() bool {
	return r.loaded
}

// IsFailed reports whether loading the value was attempted and failed.
func (r Result[T]) IsFailed() bool {
	return r.err != nil
}

// IsAttempted reports whether loading was attempted, successful or not.
func (r Result[T]) IsAttempted() bool {
	return r.loaded || r.err != nil
}

// Err returns the reason why loading failed or nil.
func (r Result[T]) Err() error {
	return r.err
}

// ValueOrZero returns the value or the type's zero value when not loaded.
func (r Result[T]) ValueOrZero() T {
	return r.value
}

func (r Result[T]) String() string {
	switch {
	case r.loaded:
		return fmt.Sprint(r.value)
	case r.err != nil:
		return fmt.Sprintf("<failed: %s>", r.err)
	}
	return "<not loaded>"
}
