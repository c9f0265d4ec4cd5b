package bench

import (
	"errors"
	"testing"

	"github.com/cronokirby/hwmont"
	"github.com/cronokirby/hwmont/emulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corruptDevice flips a bit above the low word of every result.
type corruptDevice struct {
	*emulator.Device
}

func (c corruptDevice) MulMod(z, x, y, m, rinv []uint32, mprime uint32, hwWords int) error {
	err := c.Device.MulMod(z, x, y, m, rinv, mprime, hwWords)
	z[1] ^= 1
	return err
}

func (c corruptDevice) MontMul(z, x, y, m []uint32, mprime uint32, hwWords int) error {
	err := c.Device.MontMul(z, x, y, m, mprime, hwWords)
	z[1] ^= 1
	return err
}

func TestVerifySmallPasses(t *testing.T) {
	e := hwmont.NewEngine(emulator.New(emulator.DefaultConfig))
	src, err := NewSource(11)
	require.NoError(t, err)
	require.NoError(t, VerifySmallMult(e, src, 20))
	require.NoError(t, VerifySmallExp(e, src, 20))
}

func TestVerifySmallMismatch(t *testing.T) {
	e := hwmont.NewEngine(corruptDevice{emulator.New(emulator.DefaultConfig)})
	src, err := NewSource(12)
	require.NoError(t, err)

	err = VerifySmallMult(e, src, 5)
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, OpModMult, mismatch.Op)
	assert.Equal(t, 0, mismatch.Iteration)
	assert.True(t, mismatch.HighWords)
	assert.Contains(t, err.Error(), "high words set")
}

func TestVerifySmallHardwareFailure(t *testing.T) {
	dev := emulator.New(emulator.DefaultConfig)
	e := hwmont.NewEngine(dev)
	src, err := NewSource(13)
	require.NoError(t, err)

	dev.FailAfter(2)
	err = VerifySmallExp(e, src, 5)
	var iterErr *IterationError
	require.True(t, errors.As(err, &iterErr))
	assert.Equal(t, 0, iterErr.Iteration)
	assert.ErrorIs(t, err, hwmont.ErrHardwareFault)
}

func TestSmallModulus(t *testing.T) {
	assert.Equal(t, uint64(3), smallModulus(0))
	assert.Equal(t, uint64(3), smallModulus(1))
	assert.Equal(t, uint64(3), smallModulus(2))
	assert.Equal(t, uint64(9), smallModulus(8))
}
