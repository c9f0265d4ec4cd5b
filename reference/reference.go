// Package reference implements modular arithmetic on 64-bit values in the
// most direct way possible, to check faster implementations against.
//
// Nothing here uses a double width product: multiplication is done by
// doubling and adding, so each step can be followed by hand.
package reference

// addMod computes a + b mod m, for a, b < m, without overflowing.
func addMod(a, b, m uint64) uint64 {
	// a + b >= m exactly when a >= m - b, and m - b can't underflow.
	if a >= m-b {
		return a - (m - b)
	}
	return a + b
}

// ModMul computes a * b mod m.
//
// The multiplicand is doubled once per bit of b, and added into the result
// whenever that bit is set. m = 0 gives 0.
func ModMul(a, b, m uint64) uint64 {
	if m == 0 {
		return 0
	}
	res := uint64(0)
	x := a % m
	for y := b; y > 0; y >>= 1 {
		if y&1 == 1 {
			res = addMod(res, x, m)
		}
		x = addMod(x, x, m)
	}
	// m = 1 is the one case where res, built from values below m, isn't
	// already reduced: it's 0 either way.
	return res % m
}

// ModExp computes base^exp mod m, by right to left square and multiply.
//
// m = 0 gives 0, and so does m = 1.
func ModExp(base, exp, m uint64) uint64 {
	if m == 0 {
		return 0
	}
	result := 1 % m
	b := base % m
	for e := exp; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = ModMul(result, b, m)
		}
		b = ModMul(b, b, m)
	}
	return result
}
