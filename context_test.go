package hwmont

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/cronokirby/hwmont/emulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortCapacity claims fewer words than it is asked for.
type shortCapacity struct{}

func (shortCapacity) HardwareWords(words int) int { return words - 1 }

func bigOf(x *Nat) *big.Int {
	return new(big.Int).SetBytes(x.Bytes())
}

func TestNewContextRejectsBadModulus(t *testing.T) {
	hw := emulator.New(emulator.DefaultConfig)

	_, err := NewContext(NatFromUint64(10, 1), hw)
	require.ErrorIs(t, err, ErrInvalidModulus)

	_, err = NewContext(NewNat(0), hw)
	require.ErrorIs(t, err, ErrInvalidModulus)

	_, err = NewContext(NatFromUint64(5, 2), shortCapacity{})
	require.ErrorIs(t, err, ErrHardwareFault)
}

func TestNegInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		m0 := rng.Uint32() | 1
		assert.Equal(t, ^uint32(0), m0*negInverse(m0), "m0 = %#x", m0)
	}
	assert.Equal(t, ^uint32(0), negInverse(1))
	assert.Equal(t, uint32(1), negInverse(^uint32(0)))
}

func TestContextConstants(t *testing.T) {
	hw := emulator.New(emulator.DefaultConfig)
	m := NatFromWords([]uint32{0xffff_fffb, 0x0000_0001})

	ctx, err := NewContext(m, hw)
	require.NoError(t, err)
	assert.Equal(t, 2, ctx.Words())
	assert.Equal(t, 16, ctx.HardwareWords())
	assert.Equal(t, 16, ctx.Modulus().Len())
	assert.True(t, ctx.Modulus().Equal(m))
	assert.Equal(t, ^uint32(0), m.Word(0)*ctx.MPrime())

	expected := new(big.Int).Lsh(big.NewInt(1), 64*16)
	expected.Mod(expected, bigOf(m))
	assert.Equal(t, expected.Text(16), bigOf(ctx.Rinv()).Text(16))
	assert.Equal(t, 16, ctx.Rinv().Len())
}

func TestContextIsDeterministic(t *testing.T) {
	hw := emulator.New(emulator.DefaultConfig)
	rng := rand.New(rand.NewSource(4))
	ws := make([]uint32, 64)
	for i := range ws {
		ws[i] = rng.Uint32()
	}
	ws[0] |= 1
	ws[63] |= 1 << 31

	a, err := NewContext(NatFromWords(ws), hw)
	require.NoError(t, err)
	b, err := NewContext(NatFromWords(ws), hw)
	require.NoError(t, err)
	assert.Equal(t, a.MPrime(), b.MPrime())
	assert.True(t, a.Rinv().Equal(b.Rinv()))

	expected := new(big.Int).Lsh(big.NewInt(1), 64*64)
	expected.Mod(expected, bigOf(NatFromWords(ws)))
	assert.Equal(t, expected.Text(16), bigOf(a.Rinv()).Text(16))
}

func TestContextModulusOne(t *testing.T) {
	ctx, err := NewContext(NatFromUint64(1, 1), emulator.New(emulator.DefaultConfig))
	require.NoError(t, err)
	assert.True(t, ctx.Rinv().IsZero())
}

func TestContextAccessorsCopy(t *testing.T) {
	ctx, err := NewContext(NatFromUint64(5, 1), emulator.New(emulator.DefaultConfig))
	require.NoError(t, err)
	m := ctx.Modulus()
	m.SetWord(0, 7)
	assert.Equal(t, uint64(5), ctx.Modulus().Uint64())
}
