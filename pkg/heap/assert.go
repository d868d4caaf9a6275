package heap

import (
	"fmt"

	"paserati-heap/pkg/errors"
)

// Fatalf aborts the current operation with an invariant violation. It never
// returns; callers that need to survive it must recover the panic.
func Fatalf(format string, args ...interface{}) {
	panic(&errors.InvariantError{Msg: fmt.Sprintf(format, args...)})
}

// Assertf calls Fatalf when cond is false.
func Assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		Fatalf(format, args...)
	}
}
