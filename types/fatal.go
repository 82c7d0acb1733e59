package types

import (
	"errors"
	"fmt"
)

// FatalError marks a harness-fatal condition: an authoring mistake in a test
// or schema that aborts the whole run instead of failing a single test.
type FatalError struct {
	err error
}

// Fatalf formats a harness-fatal error. The %w verb wraps like fmt.Errorf.
func Fatalf(format string, args ...interface{}) error {
	return &FatalError{err: fmt.Errorf(format, args...)}
}

// AsFatal wraps err as a harness-fatal error. Nil stays nil.
func AsFatal(err error) error {
	if err == nil || IsFatal(err) {
		return err
	}
	return &FatalError{err: err}
}

func (e *FatalError) Error() string { return e.err.Error() }

func (e *FatalError) Unwrap() error { return e.err }

// IsFatal reports whether err or any error it wraps is a FatalError
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
