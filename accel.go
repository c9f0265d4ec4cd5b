package hwmont

import "fmt"

// WordCapacity reports the operand size the multiplier actually works with.
type WordCapacity interface {
	// HardwareWords rounds a number of words up to the granularity of the
	// multiplier. The result is never smaller than words, and grows with it.
	HardwareWords(words int) int
}

// Accelerator is a hardware modular multiplier.
//
// All slices passed to it have exactly hwWords words, least significant
// first, and z may alias the inputs. R denotes 2^(32 * hwWords), the radix of
// one Montgomery pass.
type Accelerator interface {
	WordCapacity
	// Enable acquires the multiplier. It is not reentrant: enabling it a
	// second time before Disable fails.
	Enable() error
	// Disable releases the multiplier.
	Disable()
	// MulMod computes z = x * y mod m, given rinv = R^2 mod m and
	// mprime = -m^-1 mod 2^32.
	MulMod(z, x, y, m, rinv []uint32, mprime uint32, hwWords int) error
	// MontMul computes z = x * y * R^-1 mod m.
	MontMul(z, x, y, m []uint32, mprime uint32, hwWords int) error
}

// Lease is exclusive access to an Accelerator.
//
// A Lease is obtained with Acquire, and must be released exactly once, which
// is best done with a defer right after acquiring it.
type Lease struct {
	acc      Accelerator
	released bool
}

// Acquire enables the accelerator, returning a lease over it.
func Acquire(acc Accelerator) (*Lease, error) {
	if err := acc.Enable(); err != nil {
		return nil, fmt.Errorf("%w: acquire multiplier: %w", ErrHardwareFault, err)
	}
	return &Lease{acc: acc}, nil
}

// Release disables the accelerator. Calling it more than once has no further effect.
func (l *Lease) Release() {
	if l.released {
		return
	}
	l.released = true
	l.acc.Disable()
}

func (l *Lease) mulMod(z, x, y *Nat, ctx *Context) error {
	if err := l.acc.MulMod(z.words, x.words, y.words, ctx.m.words, ctx.rinv.words, ctx.mprime, ctx.hwWords); err != nil {
		return fmt.Errorf("%w: %w", ErrHardwareFault, err)
	}
	z.msb = msbUnknown
	return nil
}

func (l *Lease) montMul(z, x, y *Nat, ctx *Context) error {
	if err := l.acc.MontMul(z.words, x.words, y.words, ctx.m.words, ctx.mprime, ctx.hwWords); err != nil {
		return fmt.Errorf("%w: %w", ErrHardwareFault, err)
	}
	z.msb = msbUnknown
	return nil
}
