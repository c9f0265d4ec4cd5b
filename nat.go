package hwmont

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	// The number of bits in each word of a Nat
	_W = 32
	// MaxWords bounds the size of any Nat, 131072 bits
	MaxWords = 4096
)

// Nat represents a natural number held in a fixed number of words
type Nat struct {
	// We represent a natural number in base 2^32, least significant word
	// first, which is the layout the multiplier memories use. The length of
	// this slice is the capacity of the Nat, and never changes implicitly:
	// words above the value are kept at zero.
	words []uint32
	// msb caches the index of the most significant set bit, once computed.
	// A value of msbUnknown means the cache is stale.
	msb int
}

const msbUnknown = -2

// NewNat creates a Nat holding zero, with room for the given number of words.
func NewNat(words int) *Nat {
	return &Nat{words: make([]uint32, words), msb: msbUnknown}
}

// NatFromWords creates a Nat holding a copy of the given words.
func NatFromWords(ws []uint32) *Nat {
	z := NewNat(len(ws))
	copy(z.words, ws)
	return z
}

// NatFromUint64 creates a Nat with the given capacity holding v.
//
// The capacity must be at least 2 words if v doesn't fit in a single word.
func NatFromUint64(v uint64, words int) *Nat {
	z := NewNat(words)
	if words > 0 {
		z.words[0] = uint32(v)
	}
	if words > 1 {
		z.words[1] = uint32(v >> 32)
	}
	return z
}

// Len returns the number of words of this Nat, including leading zeros.
func (x *Nat) Len() int {
	return len(x.words)
}

// Word returns the i-th least significant word. Words past the capacity read as 0.
func (x *Nat) Word(i int) uint32 {
	if i < 0 || i >= len(x.words) {
		return 0
	}
	return x.words[i]
}

// SetWord sets the i-th least significant word, which must be within the capacity.
func (x *Nat) SetWord(i int, v uint32) {
	x.words[i] = v
	x.msb = msbUnknown
}

// Words returns the words of x, least significant first.
//
// The slice aliases x, and must not be modified.
func (x *Nat) Words() []uint32 {
	return x.words
}

// CopyWords writes the words of x into dst, zeroing any extra words of dst.
//
// Words of x that don't fit into dst are dropped.
func (x *Nat) CopyWords(dst []uint32) {
	n := copy(dst, x.words)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// Clone returns a copy of x with the same capacity.
func (x *Nat) Clone() *Nat {
	z := NatFromWords(x.words)
	z.msb = x.msb
	return z
}

// Resize changes the capacity of x, returning x.
//
// Growing fills the new words with zero. Shrinking is only allowed if the
// words being dropped are zero, so the value never changes.
func (x *Nat) Resize(words int) (*Nat, error) {
	if words < 0 || words > MaxWords {
		return nil, fmt.Errorf("%w: %d words requested, at most %d allowed", ErrAllocation, words, MaxWords)
	}
	if words <= len(x.words) {
		for _, w := range x.words[words:] {
			if w != 0 {
				return nil, fmt.Errorf("%w: value does not fit in %d words", ErrAllocation, words)
			}
		}
		x.words = x.words[:words]
		return x, nil
	}
	grown := make([]uint32, words)
	copy(grown, x.words)
	x.words = grown
	return x, nil
}

// MSB returns the index of the most significant set bit, or -1 if x is zero.
func (x *Nat) MSB() int {
	if x.msb != msbUnknown {
		return x.msb
	}
	x.msb = -1
	for i := len(x.words) - 1; i >= 0; i-- {
		if x.words[i] != 0 {
			x.msb = i*_W + bits.Len32(x.words[i]) - 1
			break
		}
	}
	return x.msb
}

// BitLen returns the number of bits needed to represent x, 0 for zero.
func (x *Nat) BitLen() int {
	return x.MSB() + 1
}

// Bit returns the i-th least significant bit of x.
func (x *Nat) Bit(i int) uint {
	if i < 0 || i >= len(x.words)*_W {
		return 0
	}
	return uint(x.words[i/_W]>>(i%_W)) & 1
}

// IsZero checks whether every word of x is zero.
func (x *Nat) IsZero() bool {
	return x.MSB() < 0
}

// Uint64 returns the low 64 bits of x.
func (x *Nat) Uint64() uint64 {
	return uint64(x.Word(1))<<32 | uint64(x.Word(0))
}

// Equal compares the values of two Nats, ignoring their capacities.
func (x *Nat) Equal(y *Nat) bool {
	n := len(x.words)
	if len(y.words) > n {
		n = len(y.words)
	}
	for i := 0; i < n; i++ {
		if x.Word(i) != y.Word(i) {
			return false
		}
	}
	return true
}

// Bytes returns the big endian encoding of x, without leading zeros.
func (x *Nat) Bytes() []byte {
	n := (x.BitLen() + 7) / 8
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = byte(x.words[i/4] >> (8 * (i % 4)))
	}
	return out
}

// SetBytes sets x to the big endian value in buf, keeping the capacity of x.
func (x *Nat) SetBytes(buf []byte) (*Nat, error) {
	// Leading zero bytes don't need room.
	for len(buf) > 0 && buf[0] == 0 {
		buf = buf[1:]
	}
	if len(buf) > 4*len(x.words) {
		return nil, fmt.Errorf("%w: %d bytes do not fit in %d words", ErrAllocation, len(buf), len(x.words))
	}
	for i := range x.words {
		x.words[i] = 0
	}
	for i := 0; i < len(buf); i++ {
		x.words[i/4] |= uint32(buf[len(buf)-1-i]) << (8 * (i % 4))
	}
	x.msb = msbUnknown
	return x, nil
}

// String formats x as hexadecimal, most significant word first.
func (x *Nat) String() string {
	if x.IsZero() {
		return "0x0"
	}
	var b strings.Builder
	b.WriteString("0x")
	top := x.MSB() / _W
	fmt.Fprintf(&b, "%x", x.words[top])
	for i := top - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%08x", x.words[i])
	}
	return b.String()
}
