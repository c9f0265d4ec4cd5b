package hwmont

import "errors"

var (
	// ErrInvalidModulus is returned when building a context for a modulus
	// that is even, or has no words at all.
	ErrInvalidModulus = errors.New("hwmont: invalid modulus")
	// ErrHardwareFault is returned when the multiplier could not be acquired,
	// rejected its operands, or failed while running.
	ErrHardwareFault = errors.New("hwmont: hardware fault")
	// ErrAllocation is returned when a buffer can't be given the size it needs.
	ErrAllocation = errors.New("hwmont: allocation failure")
)
