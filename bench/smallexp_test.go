package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChooseSmallExponent(t *testing.T) {
	e, factors := ChooseSmallExponent()
	assert.Equal(t, uint32(19635), e)
	assert.Equal(t, []uint32{3, 5, 7, 11, 17}, factors)

	prod := uint32(1)
	for _, f := range factors {
		prod *= f
	}
	assert.Equal(t, e, prod)
}

func distance(x uint64) uint64 {
	if x > smallExponentTarget {
		return x - smallExponentTarget
	}
	return smallExponentTarget - x
}

// allProducts lists the products of every subset of at most five primes,
// built recursively rather than by bitmask.
func allProducts(primes []uint32, prod uint64, count int) []uint64 {
	if len(primes) == 0 {
		if count == 0 {
			return nil
		}
		return []uint64{prod}
	}
	out := allProducts(primes[1:], prod, count)
	if count < maxExponentFactors {
		out = append(out, allProducts(primes[1:], prod*uint64(primes[0]), count+1)...)
	}
	return out
}

func TestSmallExponentIsClosest(t *testing.T) {
	e, _ := ChooseSmallExponent()
	products := allProducts(exponentPrimes[:], 1, 0)
	assert.Len(t, products, 9+36+84+126+126)
	for _, p := range products {
		assert.GreaterOrEqual(t, distance(p), distance(uint64(e)), "product %d", p)
	}
}
