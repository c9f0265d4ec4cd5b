package hwmont

import (
	"math/big"
	"math/rand"
	"testing"

	"filippo.io/bigmod"
	"github.com/cronokirby/hwmont/emulator"
	"github.com/cronokirby/hwmont/reference"
	"github.com/cronokirby/safenum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDevice tracks how the engine acquires and releases the multiplier.
type countingDevice struct {
	*emulator.Device
	held     int
	maxHeld  int
	acquires int
	releases int
}

func newCountingDevice() *countingDevice {
	return &countingDevice{Device: emulator.New(emulator.DefaultConfig)}
}

func (c *countingDevice) Enable() error {
	if err := c.Device.Enable(); err != nil {
		return err
	}
	c.acquires++
	c.held++
	if c.held > c.maxHeld {
		c.maxHeld = c.held
	}
	return nil
}

func (c *countingDevice) Disable() {
	c.releases++
	c.held--
	c.Device.Disable()
}

func (c *countingDevice) assertBalanced(t *testing.T) {
	t.Helper()
	assert.Equal(t, c.acquires, c.releases, "acquires and releases")
	assert.Equal(t, 0, c.held)
	assert.LessOrEqual(t, c.maxHeld, 1)
}

func randomOdd(rng *rand.Rand, words int) *Nat {
	x := NewNat(words)
	for i := 0; i < words; i++ {
		x.SetWord(i, rng.Uint32())
	}
	x.SetWord(0, x.Word(0)|1)
	x.SetWord(words-1, x.Word(words-1)|1<<31)
	return x
}

func randomBelowTop(rng *rand.Rand, words int) *Nat {
	x := NewNat(words)
	for i := 0; i < words; i++ {
		x.SetWord(i, rng.Uint32())
	}
	x.SetWord(words-1, x.Word(words-1)&^(1<<31))
	return x
}

func TestMultiplyExample(t *testing.T) {
	dev := newCountingDevice()
	e := NewEngine(dev)
	ctx, err := e.NewContext(NatFromUint64(5, 1))
	require.NoError(t, err)

	z, err := e.Multiply(ctx, NatFromUint64(2, 1), NatFromUint64(3, 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), z.Uint64())
	assert.Equal(t, ctx.HardwareWords(), z.Len())
	assert.Equal(t, 1, dev.acquires)
	dev.assertBalanced(t)
}

func TestExponentiateExample(t *testing.T) {
	dev := newCountingDevice()
	e := NewEngine(dev)
	ctx, err := e.NewContext(NatFromUint64(5, 1))
	require.NoError(t, err)

	exp := NatFromUint64(3, 1)
	z, err := e.Exponentiate(ctx, NatFromUint64(2, 1), exp, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), z.Uint64())
	assert.Equal(t, Steps(exp), dev.acquires)
	assert.Equal(t, uint64(Steps(exp)), dev.Counters().MontMuls)
	dev.assertBalanced(t)
}

func TestExponentiateZeroExponent(t *testing.T) {
	dev := newCountingDevice()
	e := NewEngine(dev)

	ctx, err := e.NewContext(NatFromUint64(7, 1))
	require.NoError(t, err)
	z, err := e.Exponentiate(ctx, NatFromUint64(123, 1), NewNat(1), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), z.Uint64())

	one, err := e.NewContext(NatFromUint64(1, 1))
	require.NoError(t, err)
	z, err = e.Exponentiate(one, NatFromUint64(123, 1), NewNat(1), nil)
	require.NoError(t, err)
	assert.True(t, z.IsZero())

	assert.Equal(t, 0, dev.acquires)
	assert.Equal(t, emulator.Counters{}, dev.Counters())
}

func TestExponentiateOne(t *testing.T) {
	e := NewEngine(newCountingDevice())
	ctx, err := e.NewContext(NatFromUint64(1_000_003, 1))
	require.NoError(t, err)

	z, err := e.Exponentiate(ctx, NatFromUint64(5_000_000, 1), NatFromUint64(1, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000%1_000_003), z.Uint64())
}

func TestExponentiateModulusOne(t *testing.T) {
	e := NewEngine(newCountingDevice())
	ctx, err := e.NewContext(NatFromUint64(1, 1))
	require.NoError(t, err)

	z, err := e.Exponentiate(ctx, NatFromUint64(9, 1), NatFromUint64(5, 1), nil)
	require.NoError(t, err)
	assert.True(t, z.IsZero())
}

func TestMatchesReference(t *testing.T) {
	dev := newCountingDevice()
	e := NewEngine(dev)
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 200; i++ {
		m := rng.Uint64() | 1
		if i%2 == 0 {
			m >>= 32
			m |= 1
		}
		a, b := rng.Uint64(), rng.Uint64()
		exp := rng.Uint64() >> (rng.Intn(64))

		ctx, err := e.NewContext(NatFromUint64(m, 2))
		require.NoError(t, err)

		z, err := e.Multiply(ctx, NatFromUint64(a, 2), NatFromUint64(b, 2))
		require.NoError(t, err)
		assert.Equal(t, reference.ModMul(a, b, m), z.Uint64(), "%d * %d mod %d", a, b, m)

		z, err = e.Exponentiate(ctx, NatFromUint64(a, 2), NatFromUint64(exp, 2), nil)
		require.NoError(t, err)
		assert.Equal(t, reference.ModExp(a, exp, m), z.Uint64(), "%d ^ %d mod %d", a, exp, m)
	}
	dev.assertBalanced(t)
}

func TestMatchesSafenum2048(t *testing.T) {
	e := NewEngine(newCountingDevice())
	rng := rand.New(rand.NewSource(6))

	m := randomOdd(rng, 64)
	x := randomBelowTop(rng, 64)
	y := randomBelowTop(rng, 64)
	exp := randomOdd(rng, 64)

	ctx, err := e.NewContext(m)
	require.NoError(t, err)

	modulus := safenum.ModulusFromBytes(m.Bytes())
	sx := new(safenum.Nat).SetBytes(x.Bytes())
	sy := new(safenum.Nat).SetBytes(y.Bytes())
	se := new(safenum.Nat).SetBytes(exp.Bytes())

	z, err := e.Multiply(ctx, x, y)
	require.NoError(t, err)
	expected := new(safenum.Nat).ModMul(sx, sy, modulus)
	assert.Equal(t, new(big.Int).SetBytes(expected.Bytes()).Text(16), bigOf(z).Text(16))

	z, err = e.Exponentiate(ctx, x, exp, nil)
	require.NoError(t, err)
	expected = new(safenum.Nat).Exp(sx, se, modulus)
	assert.Equal(t, new(big.Int).SetBytes(expected.Bytes()).Text(16), bigOf(z).Text(16))
}

func TestMatchesBigmod2048(t *testing.T) {
	e := NewEngine(newCountingDevice())
	rng := rand.New(rand.NewSource(7))

	m := randomOdd(rng, 64)
	x := randomBelowTop(rng, 64)
	exp := NatFromUint64(65537, 1)

	ctx, err := e.NewContext(m)
	require.NoError(t, err)

	modulus, err := bigmod.NewModulus(m.Bytes())
	require.NoError(t, err)
	bx, err := bigmod.NewNat().SetBytes(x.Bytes(), modulus)
	require.NoError(t, err)

	z, err := e.Exponentiate(ctx, x, exp, nil)
	require.NoError(t, err)
	expected := bigmod.NewNat().Exp(bx, exp.Bytes(), modulus)
	assert.Equal(t, new(big.Int).SetBytes(expected.Bytes(modulus)).Text(16), bigOf(z).Text(16))
}

func TestFaultReleasesMultiplier(t *testing.T) {
	dev := newCountingDevice()
	e := NewEngine(dev)
	ctx, err := e.NewContext(NatFromUint64(1_000_003, 1))
	require.NoError(t, err)

	dev.FailAfter(4)
	z, err := e.Exponentiate(ctx, NatFromUint64(2, 1), NatFromUint64(0xffff, 1), nil)
	require.ErrorIs(t, err, ErrHardwareFault)
	require.ErrorIs(t, err, emulator.ErrInjected)
	assert.Nil(t, z)
	assert.Equal(t, 4, dev.acquires)
	dev.assertBalanced(t)

	dev.FailAfter(1)
	z, err = e.Multiply(ctx, NatFromUint64(2, 1), NatFromUint64(3, 1))
	require.ErrorIs(t, err, ErrHardwareFault)
	assert.Nil(t, z)
	dev.assertBalanced(t)
}

func TestBusyMultiplier(t *testing.T) {
	dev := newCountingDevice()
	e := NewEngine(dev)
	ctx, err := e.NewContext(NatFromUint64(5, 1))
	require.NoError(t, err)

	require.NoError(t, dev.Device.Enable())
	_, err = e.Multiply(ctx, NatFromUint64(2, 1), NatFromUint64(3, 1))
	require.ErrorIs(t, err, ErrHardwareFault)
	require.ErrorIs(t, err, emulator.ErrBusy)
	dev.Device.Disable()

	assert.Equal(t, 0, dev.acquires)
	dev.assertBalanced(t)
}

func TestOperandTooWide(t *testing.T) {
	e := NewEngine(newCountingDevice())
	ctx, err := e.NewContext(NatFromUint64(5, 1))
	require.NoError(t, err)

	wide := NewNat(32)
	wide.SetWord(20, 1)
	_, err = e.Multiply(ctx, wide, NatFromUint64(1, 1))
	require.ErrorIs(t, err, ErrHardwareFault)
}

func TestLivenessOncePerBit(t *testing.T) {
	e := NewEngine(newCountingDevice())
	ctx, err := e.NewContext(NatFromUint64(1_000_003, 1))
	require.NoError(t, err)

	calls := 0
	exp := NatFromUint64(0b1011_0001, 1)
	_, err = e.Exponentiate(ctx, NatFromUint64(3, 1), exp, func() { calls++ })
	require.NoError(t, err)
	assert.Equal(t, exp.BitLen(), calls)
}

func TestStepsExamples(t *testing.T) {
	assert.Equal(t, 0, Steps(NewNat(1)))
	// in, in, multiply, out
	assert.Equal(t, 4, Steps(NatFromUint64(1, 1)))
	// 3 = 0b11: one square, two multiplies
	assert.Equal(t, 6, Steps(NatFromUint64(3, 1)))
	assert.Equal(t, 2+16+2+1, Steps(NatFromUint64(65537, 1)))
}

func makeBenchmarkContext(b *testing.B, e *Engine, words int) (*Context, *Nat, *Nat) {
	rng := rand.New(rand.NewSource(8))
	ctx, err := e.NewContext(randomOdd(rng, words))
	if err != nil {
		b.Fatal(err)
	}
	return ctx, randomBelowTop(rng, words), randomOdd(rng, words)
}

func BenchmarkMultiply2048(b *testing.B) {
	b.StopTimer()

	e := NewEngine(emulator.New(emulator.DefaultConfig))
	ctx, x, y := makeBenchmarkContext(b, e, 64)

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Multiply(ctx, x, y); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExponentiateSmall2048(b *testing.B) {
	b.StopTimer()

	e := NewEngine(emulator.New(emulator.DefaultConfig))
	ctx, x, _ := makeBenchmarkContext(b, e, 64)
	exp := NatFromUint64(65537, 1)

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Exponentiate(ctx, x, exp, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExponentiateFull2048(b *testing.B) {
	b.StopTimer()

	e := NewEngine(emulator.New(emulator.DefaultConfig))
	ctx, x, exp := makeBenchmarkContext(b, e, 64)

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Exponentiate(ctx, x, exp, nil); err != nil {
			b.Fatal(err)
		}
	}
}
