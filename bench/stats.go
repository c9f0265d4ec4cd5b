package bench

import "math"

// Stats aggregates timings without keeping the individual samples, so that
// long runs use constant memory.
type Stats struct {
	count uint64
	total uint64
	sumsq float64
	min   uint64
	max   uint64
}

// Add records one timing, in microseconds.
func (s *Stats) Add(us uint64) {
	if s.count == 0 || us < s.min {
		s.min = us
	}
	if us > s.max {
		s.max = us
	}
	s.count++
	s.total += us
	f := float64(us)
	s.sumsq += f * f
}

// Count returns the number of timings recorded.
func (s *Stats) Count() uint64 { return s.count }

// Total returns the sum of all timings.
func (s *Stats) Total() uint64 { return s.total }

// Min returns the smallest timing, or 0 if there are none.
func (s *Stats) Min() uint64 { return s.min }

// Max returns the largest timing, or 0 if there are none.
func (s *Stats) Max() uint64 { return s.max }

// Mean returns the average timing, or 0 if there are none.
func (s *Stats) Mean() float64 {
	if s.count == 0 {
		return 0
	}
	return float64(s.total) / float64(s.count)
}

// StdDev returns the population standard deviation of the timings.
func (s *Stats) StdDev() float64 {
	if s.count == 0 {
		return 0
	}
	mean := s.Mean()
	// Rounding can push this slightly below zero when all samples are equal.
	variance := s.sumsq/float64(s.count) - mean*mean
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}
