package bench

import "math"

const (
	// smallExponentTarget is the value the small exponent should be closest to.
	smallExponentTarget = 20000
	// maxExponentFactors bounds the number of primes in the small exponent.
	maxExponentFactors = 5
)

var exponentPrimes = [...]uint32{3, 5, 7, 11, 13, 17, 19, 23, 29}

// ChooseSmallExponent picks the product of at most five distinct small odd
// primes closest to 20000, along with its factors in increasing order.
//
// Subsets are tried in increasing order of their bitmask over the primes, and
// only a strictly closer product replaces the current best, so ties go to the
// first subset found.
func ChooseSmallExponent() (uint32, []uint32) {
	var best uint64
	var bestMask uint32
	bestDiff := uint64(math.MaxUint64)

	for mask := uint32(1); mask < 1<<len(exponentPrimes); mask++ {
		count := 0
		prod := uint64(1)
		for i, p := range exponentPrimes {
			if mask&(1<<i) != 0 {
				count++
				prod *= uint64(p)
			}
		}
		if count > maxExponentFactors || prod > math.MaxUint32 {
			continue
		}
		diff := prod - smallExponentTarget
		if prod < smallExponentTarget {
			diff = smallExponentTarget - prod
		}
		if diff < bestDiff {
			best, bestMask, bestDiff = prod, mask, diff
		}
	}

	var factors []uint32
	for i, p := range exponentPrimes {
		if bestMask&(1<<i) != 0 {
			factors = append(factors, p)
		}
	}
	return uint32(best), factors
}
