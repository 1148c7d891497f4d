package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
)

// PanicError is returned in place of a panic raised inside a forward pass or
// a loader goroutine.
type PanicError struct {
	Operation  string
	PanicValue interface{}
	StackTrace string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.PanicValue.(error); ok {
		return err
	}
	return nil
}

// Recover converts a panic into a *PanicError stored in *err. It must be
// deferred directly:
//
//	func (n *NAM) Forward(x mat.Matrix) (out *mat.Dense, err error) {
//	    defer errors.Recover(&err, "NAM.Forward")
//	    ...
//	}
//
// An error already held in *err is kept as the secondary cause.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	panicErr := &PanicError{
		Operation:  operation,
		PanicValue: r,
		StackTrace: string(debug.Stack()),
	}
	if *err != nil {
		*err = errors.WithSecondaryError(panicErr, *err)
		return
	}
	*err = panicErr
}

// SafeExecute runs fn and turns a panic into an error.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
