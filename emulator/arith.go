package emulator

import "math/bits"

// choice represents a condition computed without branching
//
// The value of choice is always either 1, or 0
type choice uint32

// ctEq compares two words for equality
func ctEq(x, y uint32) choice {
	// If x == y, then x ^ y is zero, and subtracting it from zero doesn't
	// borrow. Any other value makes the subtraction borrow.
	_, b := bits.Sub32(0, x^y, 0)
	return 1 ^ choice(b)
}

// ctIfElse returns x if on == 1, and y if on == 0
//
// If on is any value besides 1 or 0, the result is undefined.
func ctIfElse(on choice, x, y uint32) uint32 {
	mask := -uint32(on)
	return y ^ (mask & (y ^ x))
}

// cmpGeq calculates x >= y, returning 1 if this holds, and 0 otherwise
func cmpGeq(x, y []uint32) choice {
	var c uint32
	for i := 0; i < len(x) && i < len(y); i++ {
		_, c = bits.Sub32(x[i], y[i], c)
	}
	// If there was a borrow, then subtracting y underflowed, so
	// x is not greater than or equal to y
	return 1 ^ choice(c)
}

// sub computes x -= y, if on == 1, and otherwise does nothing
//
// The length of both operands must be the same.
func sub(on choice, x, y []uint32) (c uint32) {
	for i := 0; i < len(x) && i < len(y); i++ {
		var res uint32
		res, c = bits.Sub32(x[i], y[i], c)
		x[i] = ctIfElse(on, res, x[i])
	}
	return
}
