package bench

import (
	"io"

	"github.com/cronokirby/hwmont"
	"github.com/cronokirby/hwmont/reference"
	"github.com/ethereum/go-ethereum/log"
)

// verifyWords is the buffer size of the small value checks, the widest the
// hardware takes, so that the high words are exercised as zeros.
const verifyWords = 128

// smallValues draws three 32-bit values.
func smallValues(r io.Reader) (x, y, m uint64, err error) {
	var ws [3]uint32
	if err := FillWords(r, ws[:]); err != nil {
		return 0, 0, 0, err
	}
	return uint64(ws[0]), uint64(ws[1]), uint64(ws[2]), nil
}

// smallModulus makes m odd and at least 3.
func smallModulus(m uint64) uint64 {
	m |= 1
	if m < 3 {
		m |= 3
	}
	return m
}

func checkSmall(op string, i int, x, y, m, expected uint64, z *hwmont.Nat) error {
	high := z.BitLen() > 32
	if uint64(z.Word(0)) != expected || high {
		return &MismatchError{
			Op:        op,
			Iteration: i,
			X:         x,
			Y:         y,
			M:         m,
			Expected:  expected,
			Actual:    uint64(z.Word(0)),
			HighWords: high,
		}
	}
	return nil
}

// VerifySmallMult checks modular multiplication of random 32-bit values
// against the reference arithmetic, stopping at the first disagreement.
func VerifySmallMult(e *hwmont.Engine, r io.Reader, iterations int) error {
	for i := 0; i < iterations; i++ {
		x, y, m, err := smallValues(r)
		if err != nil {
			return err
		}
		m = smallModulus(m)

		ctx, err := e.NewContext(hwmont.NatFromUint64(m, verifyWords))
		if err != nil {
			return err
		}
		z, err := e.Multiply(ctx, hwmont.NatFromUint64(x, verifyWords), hwmont.NatFromUint64(y, verifyWords))
		if err != nil {
			return &IterationError{Op: OpModMult, Bits: 32 * verifyWords, Label: LabelNone, Iteration: i, Err: err}
		}
		if err := checkSmall(OpModMult, i, x, y, m, reference.ModMul(x, y, m), z); err != nil {
			return err
		}
	}
	log.Info("Small value multiplication matches reference", "passed", iterations)
	return nil
}

// VerifySmallExp checks modular exponentiation of random 32-bit values
// against the reference arithmetic, stopping at the first disagreement.
func VerifySmallExp(e *hwmont.Engine, r io.Reader, iterations int) error {
	for i := 0; i < iterations; i++ {
		x, exp, m, err := smallValues(r)
		if err != nil {
			return err
		}
		m = smallModulus(m)
		if exp == 0 {
			exp = 3
		}

		ctx, err := e.NewContext(hwmont.NatFromUint64(m, verifyWords))
		if err != nil {
			return err
		}
		z, err := e.Exponentiate(ctx, hwmont.NatFromUint64(x, verifyWords), hwmont.NatFromUint64(exp, verifyWords), nil)
		if err != nil {
			return &IterationError{Op: OpModExp, Bits: 32 * verifyWords, Label: LabelSmall, Iteration: i, Err: err}
		}
		if err := checkSmall(OpModExp, i, x, exp, m, reference.ModExp(x, exp, m), z); err != nil {
			return err
		}
	}
	log.Info("Small value exponentiation matches reference", "passed", iterations)
	return nil
}
