package hwmont

import "fmt"

// Steps returns the number of Montgomery multiplications Exponentiate issues
// for a given exponent.
func Steps(exp *Nat) int {
	t := exp.MSB()
	if t < 0 {
		return 0
	}
	ones := 0
	for i := 0; i <= t; i++ {
		ones += int(exp.Bit(i))
	}
	// Two conversions in, one squaring per bit below the top, one
	// multiplication per set bit, and one conversion out.
	return 2 + t + ones + 1
}

// identity returns 1 mod m, in the hardware width of ctx.
func identity(ctx *Context) *Nat {
	z := NewNat(ctx.hwWords)
	// m is odd, so 1 mod m is only 0 when m = 1.
	if ctx.m.BitLen() > 1 {
		z.SetWord(0, 1)
	}
	return z
}

// Exponentiate computes x^exp mod m, for the modulus of ctx.
//
// This is left to right square and multiply, with every product being a single
// Montgomery pass of the multiplier. The multiplier is acquired and released
// around each pass, so a long exponentiation never holds it for long.
//
// alive, if not nil, is called once for every bit of the exponent, so that
// callers can signal progress to a supervisor. It has no effect on the result.
//
// A zero exponent gives 1 mod m without using the multiplier at all.
func (e *Engine) Exponentiate(ctx *Context, x, exp *Nat, alive func()) (*Nat, error) {
	if exp.IsZero() {
		return identity(ctx), nil
	}
	xp, err := operand(ctx, x, "x")
	if err != nil {
		return nil, err
	}
	xMont, err := result(ctx)
	if err != nil {
		return nil, err
	}
	z, err := result(ctx)
	if err != nil {
		return nil, err
	}
	// This is 1 as a plain value, not as a Montgomery one, so multiplying by
	// it removes one factor of R.
	one := NatFromUint64(1, ctx.hwWords)

	step, total := 0, Steps(exp)
	mont := func(out, a, b *Nat) error {
		step++
		if err := e.montStep(ctx, out, a, b); err != nil {
			return fmt.Errorf("modexp step %d of %d: %w", step, total, err)
		}
		return nil
	}

	// xMont = x * R^2 / R = x * R
	if err := mont(xMont, xp, ctx.rinv); err != nil {
		return nil, err
	}
	// z = R^2 * 1 / R = R, which is 1 in the Montgomery domain
	if err := mont(z, ctx.rinv, one); err != nil {
		return nil, err
	}

	t := exp.MSB()
	for i := t; i >= 0; i-- {
		if alive != nil {
			alive()
		}
		if i != t {
			if err := mont(z, z, z); err != nil {
				return nil, err
			}
		}
		if exp.Bit(i) == 1 {
			if err := mont(z, z, xMont); err != nil {
				return nil, err
			}
		}
	}

	// z * 1 / R brings us back out of the Montgomery domain.
	if err := mont(z, z, one); err != nil {
		return nil, err
	}
	return z, nil
}

// montStep runs one Montgomery multiplication, holding the multiplier only
// for its duration.
func (e *Engine) montStep(ctx *Context, z, x, y *Nat) error {
	lease, err := Acquire(e.acc)
	if err != nil {
		return err
	}
	defer lease.Release()
	return lease.montMul(z, x, y, ctx)
}
