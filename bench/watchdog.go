package bench

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"
)

// Watchdog is a supervisory timer that expects to be fed regularly while
// long operations run.
//
// A starved watchdog only logs: nothing is interrupted, since a single
// hardware step can't be cancelled anyway. Feeding is rate limited, so the
// liveness callback can be called as often as an exponentiation likes.
type Watchdog struct {
	timeout time.Duration
	limiter *rate.Limiter
	log     log.Logger

	mu      sync.Mutex
	timer   *time.Timer
	feeds   uint64
	starved uint64
	lastFed time.Time
	stopped bool
}

// NewWatchdog creates a stopped watchdog that starves after timeout without
// a feed, and accepts at most feedRate feeds per second.
func NewWatchdog(timeout time.Duration, feedRate float64) *Watchdog {
	return &Watchdog{
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(feedRate), 1),
		log:     log.New("module", "watchdog"),
		stopped: true,
	}
}

// Start arms the watchdog.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.stopped {
		return
	}
	w.stopped = false
	w.lastFed = time.Now()
	w.timer = time.AfterFunc(w.timeout, w.expire)
	w.log.Debug("Watchdog armed", "timeout", w.timeout)
}

// Stop disarms the watchdog.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true
	w.timer.Stop()
	w.log.Debug("Watchdog disarmed", "feeds", w.feeds, "starved", w.starved)
}

// Feed resets the timer, unless the last accepted feed was too recent.
func (w *Watchdog) Feed() {
	if !w.limiter.Allow() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.feeds++
	w.lastFed = time.Now()
	w.timer.Reset(w.timeout)
}

// Liveness returns a callback feeding the watchdog, suitable for
// (*hwmont.Engine).Exponentiate. A nil watchdog gives a nil callback.
func (w *Watchdog) Liveness() func() {
	if w == nil {
		return nil
	}
	return w.Feed
}

// Feeds returns the number of feeds that reset the timer.
func (w *Watchdog) Feeds() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.feeds
}

// Starved returns the number of times the timeout elapsed without a feed.
func (w *Watchdog) Starved() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.starved
}

func (w *Watchdog) expire() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.starved++
	w.log.Warn("Watchdog starved", "timeout", w.timeout, "since", time.Since(w.lastFed))
	w.timer.Reset(w.timeout)
}
