package bench

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/hwmont"
)

// ErrWidth is returned for bit widths that aren't a positive number of words.
var ErrWidth = errors.New("bench: invalid bit width")

func checkWidth(bits int) error {
	if bits <= 0 || bits%32 != 0 || bits/32 > hwmont.MaxWords {
		return fmt.Errorf("%w: %d", ErrWidth, bits)
	}
	return nil
}

func randomWords(r io.Reader, bits int) ([]uint32, error) {
	if err := checkWidth(bits); err != nil {
		return nil, err
	}
	ws := make([]uint32, bits/32)
	if err := FillWords(r, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// GenerateModulus returns a random odd modulus with exactly the given number of bits.
func GenerateModulus(r io.Reader, bits int) (*hwmont.Nat, error) {
	ws, err := randomWords(r, bits)
	if err != nil {
		return nil, err
	}
	ws[len(ws)-1] |= 1 << 31
	ws[0] |= 1
	return hwmont.NatFromWords(ws), nil
}

// GenerateOperand returns a random value with its top bit cleared, so it is
// smaller than any modulus of the same width from GenerateModulus.
func GenerateOperand(r io.Reader, bits int) (*hwmont.Nat, error) {
	ws, err := randomWords(r, bits)
	if err != nil {
		return nil, err
	}
	ws[len(ws)-1] &^= 1 << 31
	return hwmont.NatFromWords(ws), nil
}

// FullExponent returns a random exponent using every one of the given bits.
func FullExponent(r io.Reader, bits int) (*hwmont.Nat, error) {
	ws, err := randomWords(r, bits)
	if err != nil {
		return nil, err
	}
	ws[len(ws)-1] |= 1 << 31
	return hwmont.NatFromWords(ws), nil
}

// SmallExponent places e in the low word of an exponent of the given width.
func SmallExponent(e uint32, bits int) (*hwmont.Nat, error) {
	if err := checkWidth(bits); err != nil {
		return nil, err
	}
	return hwmont.NatFromUint64(uint64(e), bits/32), nil
}
