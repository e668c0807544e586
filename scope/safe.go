package scope

import (
	"fmt"

	"github.com/pkg/errors"
)

// PanicError wraps a panic recovered while stopping a Handle. Once one
// of these has been seen the node it came from can no longer be
// trusted; callers should treat it as a signal to stop measuring rather
// than something to retry.
//
// Grounded on DataDog/go-libddwaf's safe.go tryCall/PanicError: recover
// the panic, keep its stack via pkg/errors.WithStack, and rewrap it so
// errors.Is/As can still see the original cause through Unwrap.
type PanicError struct {
	Err error
}

func newPanicError(r any) *PanicError {
	var err error
	switch v := r.(type) {
	case error:
		err = errors.WithStack(v)
	case string:
		err = errors.New(v)
	default:
		err = errors.Errorf("%v", v)
	}
	return &PanicError{Err: err}
}

// Unwrap returns the recovered cause, required by errors.Is and errors.As.
func (e *PanicError) Unwrap() error { return e.Err }

func (e *PanicError) Error() string {
	return fmt.Sprintf("perfgraph: recovered panic while stopping a scope handle: %+v", e.Err)
}
