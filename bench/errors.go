package bench

import (
	"errors"
	"fmt"
)

var (
	// ErrPhaseOrder is returned when a phase is run out of sequence, or twice.
	ErrPhaseOrder = errors.New("bench: phase out of order")
	// ErrMemoryProbe is returned when a word written to the hardware reads back differently.
	ErrMemoryProbe = errors.New("bench: memory probe failed")
	// ErrZeroResult is returned when an operation that can't give zero did.
	ErrZeroResult = errors.New("bench: unexpected zero result")
	// ErrCrossCheck is returned when a result disagrees with the software implementation.
	ErrCrossCheck = errors.New("bench: cross-check failed")
)

// MismatchError reports a hardware result that disagrees with the reference
// arithmetic on small values.
type MismatchError struct {
	Op        string
	Iteration int
	// X is the first operand, Y the second operand or the exponent.
	X, Y, M  uint64
	Expected uint64
	Actual   uint64
	// HighWords is set if words above the low one were non-zero.
	HighWords bool
}

func (e *MismatchError) Error() string {
	high := ""
	if e.HighWords {
		high = " (high words set)"
	}
	return fmt.Sprintf("%s mismatch at iteration %d: x=%d y=%d m=%d: expected %d, got %d%s",
		e.Op, e.Iteration, e.X, e.Y, e.M, e.Expected, e.Actual, high)
}

// IterationError reports the iteration a benchmark run stopped at.
type IterationError struct {
	Op        string
	Bits      int
	Label     string
	Iteration int
	Err       error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("%s %d-bit (%s) failed at iteration %d: %v", e.Op, e.Bits, e.Label, e.Iteration, e.Err)
}

func (e *IterationError) Unwrap() error {
	return e.Err
}
