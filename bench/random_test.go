package bench

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceIsDeterministic(t *testing.T) {
	a, err := NewSource(42)
	require.NoError(t, err)
	b, err := NewSource(42)
	require.NoError(t, err)
	c, err := NewSource(43)
	require.NoError(t, err)

	bufA, bufB, bufC := make([]byte, 100), make([]byte, 100), make([]byte, 100)
	_, _ = a.Read(bufA)
	_, _ = b.Read(bufB)
	_, _ = c.Read(bufC)
	assert.Equal(t, bufA, bufB)
	assert.NotEqual(t, bufA, bufC)

	// The stream continues rather than restarting.
	_, _ = a.Read(bufB)
	assert.NotEqual(t, bufA, bufB)
}

func TestSourceRandomSeed(t *testing.T) {
	s, err := NewSource(0)
	require.NoError(t, err)
	assert.NotZero(t, s.Seed())
}

func TestFillWordsLittleEndian(t *testing.T) {
	ws := make([]uint32, 2)
	require.NoError(t, FillWords(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8}), ws))
	assert.Equal(t, []uint32{0x0403_0201, 0x0807_0605}, ws)

	require.Error(t, FillWords(bytes.NewReader([]byte{1, 2, 3}), ws))
}
