// Package hwmont implements modular multiplication and exponentiation on top
// of a hardware Montgomery multiplier.
//
// A Context is built once per modulus, and then an Engine runs operations
// against it, acquiring the multiplier for every single hardware step.
package hwmont

import "fmt"

// Engine runs modular arithmetic on an accelerator.
type Engine struct {
	acc Accelerator
}

// NewEngine creates an engine using the given accelerator.
func NewEngine(acc Accelerator) *Engine {
	return &Engine{acc: acc}
}

// NewContext builds a context for m, sized for the accelerator of this engine.
func (e *Engine) NewContext(m *Nat) (*Context, error) {
	return NewContext(m, e.acc)
}

// operand copies x into a buffer of the hardware width.
func operand(ctx *Context, x *Nat, name string) (*Nat, error) {
	if x.BitLen() > ctx.hwWords*_W {
		return nil, fmt.Errorf("%w: %s has %d bits, hardware takes %d words", ErrHardwareFault, name, x.BitLen(), ctx.hwWords)
	}
	padded, err := x.Clone().Resize(ctx.hwWords)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHardwareFault, err)
	}
	return padded, nil
}

// result allocates a buffer of the hardware width for the multiplier to write into.
func result(ctx *Context) (*Nat, error) {
	z, err := NewNat(0).Resize(ctx.hwWords)
	if err != nil {
		return nil, fmt.Errorf("%w: sizing result: %w", ErrHardwareFault, err)
	}
	return z, nil
}

// Multiply computes x * y mod m, for the modulus of ctx.
//
// The operands must fit in the hardware width of ctx. The result has that width.
func (e *Engine) Multiply(ctx *Context, x, y *Nat) (*Nat, error) {
	xp, err := operand(ctx, x, "x")
	if err != nil {
		return nil, err
	}
	yp, err := operand(ctx, y, "y")
	if err != nil {
		return nil, err
	}
	z, err := result(ctx)
	if err != nil {
		return nil, err
	}

	lease, err := Acquire(e.acc)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	if err := lease.mulMod(z, xp, yp, ctx); err != nil {
		return nil, err
	}
	return z, nil
}
