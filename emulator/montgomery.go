package emulator

import "math/bits"

// triple holds an intermediate sum over three words.
//
// In the inner loop we compute z[j] + x[i]*y[j] + f*m[j] + c, which can
// exceed two words, so we keep one more word around for the carry.
type triple struct {
	w0 uint32
	w1 uint32
	w2 uint32
}

func (a *triple) add(b triple) {
	w0, c0 := bits.Add32(a.w0, b.w0, 0)
	w1, c1 := bits.Add32(a.w1, b.w1, c0)
	w2, _ := bits.Add32(a.w2, b.w2, c1)
	a.w0 = w0
	a.w1 = w1
	a.w2 = w2
}

func tripleFromMul(a uint32, b uint32) triple {
	w1, w0 := bits.Mul32(a, b)
	return triple{w0: w0, w1: w1, w2: 0}
}

// montgomeryMul computes out = x * y * 2^(-32 * len(m)) mod m.
//
// This is the word-serial loop the multiplier block runs for one pass. All
// slices have len(m) words, m must be odd, and m0inv must be -m[0]^-1 mod 2^32.
// out may not alias x or y.
//
// The result is fully reduced as long as x * y < m * 2^(32 * len(m)), which
// holds whenever one operand is below m.
func montgomeryMul(out []uint32, x []uint32, y []uint32, m []uint32, m0inv uint32) {
	size := len(m)

	for i := 0; i < size; i++ {
		out[i] = 0
	}
	dh := uint32(0)
	for i := 0; i < size; i++ {
		f := (out[0] + x[i]*y[0]) * m0inv
		var c triple
		for j := 0; j < size; j++ {
			z := triple{w0: out[j], w1: 0, w2: 0}
			z.add(tripleFromMul(x[i], y[j]))
			z.add(tripleFromMul(f, m[j]))
			z.add(c)
			if j > 0 {
				out[j-1] = z.w0
			}
			c.w0 = z.w1
			c.w1 = z.w2
		}
		z := triple{w0: dh, w1: 0, w2: 0}
		z.add(c)
		out[size-1] = z.w0
		dh = z.w1
	}

	// The value we hold is dh * 2^(32 * size) + out < 2m. If dh is set we
	// wrapped around, and out must be below m, so in both cases a single
	// subtraction brings us back into range.
	underflow := 1 ^ cmpGeq(out, m)
	needSubtraction := ctEq(dh, uint32(underflow))
	sub(needSubtraction, out, m)
}
