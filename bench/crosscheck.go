package bench

import (
	"bytes"
	"fmt"

	"filippo.io/bigmod"
	"github.com/cronokirby/hwmont"
)

// softwareModulus converts m for use with the software implementation.
func softwareModulus(m *hwmont.Nat) (*bigmod.Modulus, error) {
	mod, err := bigmod.NewModulus(m.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrossCheck, err)
	}
	return mod, nil
}

func softwareNat(x *hwmont.Nat, m *bigmod.Modulus) (*bigmod.Nat, error) {
	n, err := bigmod.NewNat().SetBytes(x.Bytes(), m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrossCheck, err)
	}
	return n, nil
}

func compareResult(op string, expected []byte, z *hwmont.Nat) error {
	// bigmod pads to the size of the modulus.
	expected = bytes.TrimLeft(expected, "\x00")
	if !bytes.Equal(expected, z.Bytes()) {
		return fmt.Errorf("%w: %s gave %v", ErrCrossCheck, op, z)
	}
	return nil
}

// CrossCheckMul verifies z = x * y mod m in software. x and y must be below m.
func CrossCheckMul(m, x, y, z *hwmont.Nat) error {
	mod, err := softwareModulus(m)
	if err != nil {
		return err
	}
	sx, err := softwareNat(x, mod)
	if err != nil {
		return err
	}
	sy, err := softwareNat(y, mod)
	if err != nil {
		return err
	}
	return compareResult(OpModMult, sx.Mul(sy, mod).Bytes(mod), z)
}

// CrossCheckExp verifies z = x^e mod m in software. x must be below m.
func CrossCheckExp(m, x, e, z *hwmont.Nat) error {
	mod, err := softwareModulus(m)
	if err != nil {
		return err
	}
	sx, err := softwareNat(x, mod)
	if err != nil {
		return err
	}
	return compareResult(OpModExp, bigmod.NewNat().Exp(sx, e.Bytes(), mod).Bytes(mod), z)
}
