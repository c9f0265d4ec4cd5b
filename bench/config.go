package bench

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfig is returned for configurations that can't be run.
var ErrConfig = errors.New("bench: invalid configuration")

// Width configures the benchmark phase for one operand size.
type Width struct {
	Bits               int
	MultIterations     int
	SmallExpIterations int
	FullExpIterations  int
}

// Config holds the settings of a benchmark run.
type Config struct {
	// Seed for operand generation, 0 to pick one at random.
	Seed uint64 `toml:",omitempty"`
	// Iterations of each small value correctness check.
	VerifyIterations int
	// Untimed iterations before each timed run.
	Warmup int
	// Check the last result of every run against a software implementation.
	CrossCheck bool
	// Time without liveness signals before the watchdog complains, 0 for no watchdog.
	WatchdogTimeout time.Duration
	// Upper bound on watchdog feeds per second.
	WatchdogFeedRate float64
	// Benchmark phases, run in order of increasing width.
	Widths []Width
}

// DefaultConfig matches the iteration counts the firmware benchmark used.
var DefaultConfig = Config{
	VerifyIterations: 5,
	Warmup:           1,
	WatchdogTimeout:  5 * time.Second,
	WatchdogFeedRate: 10,
	Widths: []Width{
		{Bits: 2048, MultIterations: 20, SmallExpIterations: 10, FullExpIterations: 10},
		{Bits: 4096, MultIterations: 50, SmallExpIterations: 20, FullExpIterations: 50},
	},
}

// Validate checks that every width can be benchmarked, in order.
func (c *Config) Validate() error {
	if c.VerifyIterations < 0 || c.Warmup < 0 {
		return fmt.Errorf("%w: negative iteration count", ErrConfig)
	}
	if c.WatchdogTimeout > 0 && c.WatchdogFeedRate <= 0 {
		return fmt.Errorf("%w: watchdog needs a positive feed rate", ErrConfig)
	}
	prev := 0
	for _, w := range c.Widths {
		if err := checkWidth(w.Bits); err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
		if w.Bits <= prev {
			return fmt.Errorf("%w: width %d after %d", ErrConfig, w.Bits, prev)
		}
		if w.MultIterations < 0 || w.SmallExpIterations < 0 || w.FullExpIterations < 0 {
			return fmt.Errorf("%w: negative iteration count for %d bits", ErrConfig, w.Bits)
		}
		prev = w.Bits
	}
	return nil
}
