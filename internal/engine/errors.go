package engine

import "errors"

var (
	// ErrBusy is returned by Start while a worker is still alive.
	ErrBusy = errors.New("engine: generator busy, cancel first")

	// ErrValidation marks parameter errors raised before any computation.
	ErrValidation = errors.New("engine: invalid parameters")

	// ErrPanic indicates the generator panicked inside its worker.
	ErrPanic = errors.New("engine: generator panicked")
)

// ValidationError carries a user facing message about one parameter.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// GenerationError wraps a failure raised while a generator was running.
type GenerationError struct {
	Generator string
	Wrapped   error
}

func (e *GenerationError) Error() string {
	return e.Generator + ": " + e.Wrapped.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Wrapped
}
