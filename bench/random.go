package bench

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"
)

// Source is a deterministic stream of random bytes, derived from a seed.
//
// Operands for benchmarking don't need to be unpredictable, only varied, but
// a failing run should be reproducible from the seed it logged.
type Source struct {
	seed   uint64
	stream *chacha20.Cipher
}

// NewSource creates a source from seed, or from a random seed if seed is 0.
func NewSource(seed uint64) (*Source, error) {
	if seed == 0 {
		var buf [8]byte
		if _, err := io.ReadFull(crand.Reader, buf[:]); err != nil {
			return nil, fmt.Errorf("drawing seed: %w", err)
		}
		seed = binary.LittleEndian.Uint64(buf[:]) | 1
	}
	var key [chacha20.KeySize]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	var nonce [chacha20.NonceSize]byte
	stream, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	return &Source{seed: seed, stream: stream}, nil
}

// Seed returns the seed this source was created from.
func (s *Source) Seed() uint64 {
	return s.seed
}

// Read fills p with the next bytes of the key stream. It never fails.
func (s *Source) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	s.stream.XORKeyStream(p, p)
	return len(p), nil
}

// FillWords fills ws with random words, read as little endian bytes.
func FillWords(r io.Reader, ws []uint32) error {
	buf := make([]byte, 4*len(ws))
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("reading random words: %w", err)
	}
	for i := range ws {
		ws[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return nil
}
