package hwmont

import (
	"fmt"

	"github.com/cronokirby/safenum"
	"github.com/ethereum/go-ethereum/log"
)

// mprimeIterations is the number of Newton steps needed to invert a word.
//
// Each step doubles the number of correct low bits, and we start with at
// least one, so log2(32) steps are enough.
const mprimeIterations = 5

// Context holds everything the multiplier needs to work modulo a fixed modulus.
//
// A Context is never modified after being built, so it can be shared freely.
type Context struct {
	// The number of words of the modulus, as given
	words int
	// The number of words the multiplier works with, at least words
	hwWords int
	// -m^-1 mod 2^32
	mprime uint32
	// The modulus, padded to hwWords
	m *Nat
	// 2^(64 * hwWords) mod m, padded to hwWords.
	//
	// This is R^2 mod m, for R = 2^(32 * hwWords) the radix of one Montgomery
	// pass: multiplying by it once moves a value into the Montgomery domain,
	// and lets the two pass mode of the multiplier return plain products.
	rinv *Nat
}

// NewContext precomputes the Montgomery constants for a modulus.
//
// The modulus must be odd, and have at least one word. Its capacity, rather
// than its bit length, determines the operand size. No hardware is touched.
func NewContext(m *Nat, hw WordCapacity) (*Context, error) {
	words := m.Len()
	if words == 0 {
		return nil, fmt.Errorf("%w: no words", ErrInvalidModulus)
	}
	if m.Word(0)&1 == 0 {
		return nil, fmt.Errorf("%w: modulus is even", ErrInvalidModulus)
	}
	hwWords := hw.HardwareWords(words)
	if hwWords < words {
		return nil, fmt.Errorf("%w: hardware reports %d words for a %d word modulus", ErrHardwareFault, hwWords, words)
	}

	padded, err := m.Clone().Resize(hwWords)
	if err != nil {
		return nil, err
	}
	rinv, err := radixSquared(padded, hwWords)
	if err != nil {
		return nil, err
	}
	ctx := &Context{
		words:   words,
		hwWords: hwWords,
		mprime:  negInverse(m.Word(0)),
		m:       padded,
		rinv:    rinv,
	}
	log.Debug("Built Montgomery context", "words", words, "hwwords", hwWords, "mprime", fmt.Sprintf("%#08x", ctx.mprime), "bits", m.BitLen())
	return ctx, nil
}

// radixSquared computes 2^(64 * hwWords) mod m, in a Nat of hwWords words.
func radixSquared(m *Nat, hwWords int) (*Nat, error) {
	if m.BitLen() <= 1 {
		// Everything is 0 mod 1.
		return NewNat(hwWords), nil
	}
	shift := uint(2 * _W * hwWords)
	modulus := safenum.ModulusFromBytes(m.Bytes())
	r := new(safenum.Nat).SetUint64(1)
	r.Lsh(r, shift, int(shift)+1)
	r.Mod(r, modulus)
	return NewNat(hwWords).SetBytes(r.Bytes())
}

// negInverse calculates -m0^-1 mod 2^32, for odd m0.
//
// This uses Newton's method: if x is an inverse of m0 mod 2^k, then
// x * (2 - m0 * x) is an inverse mod 2^2k.
func negInverse(m0 uint32) uint32 {
	x := m0
	// m0 is its own inverse mod 8, and the correction term makes this hold mod 16.
	x += ((m0 + 2) & 4) << 1
	for i := 0; i < mprimeIterations; i++ {
		x *= 2 - m0*x
	}
	return -x
}

// Words returns the number of words of the modulus.
func (ctx *Context) Words() int {
	return ctx.words
}

// HardwareWords returns the number of words the multiplier works with.
func (ctx *Context) HardwareWords() int {
	return ctx.hwWords
}

// MPrime returns -m^-1 mod 2^32.
func (ctx *Context) MPrime() uint32 {
	return ctx.mprime
}

// Modulus returns a copy of the modulus, padded to the hardware size.
func (ctx *Context) Modulus() *Nat {
	return ctx.m.Clone()
}

// Rinv returns a copy of 2^(64 * hwWords) mod m, padded to the hardware size.
func (ctx *Context) Rinv() *Nat {
	return ctx.rinv.Clone()
}
