package bench

import "time"

// Clock is a monotonic source of timestamps, in microseconds.
type Clock interface {
	NowMicros() uint64
}

// MonotonicClock measures time since its creation, using the monotonic
// reading of the runtime clock.
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock creates a clock starting at 0 now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

func (c *MonotonicClock) NowMicros() uint64 {
	return uint64(time.Since(c.start).Microseconds())
}
