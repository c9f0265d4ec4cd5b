// Package bench verifies a hardware modular multiplier against reference
// arithmetic, and measures how fast it multiplies and exponentiates.
//
// Timings are written as CSV records, one per iteration plus one summary per
// run, while progress and results for people go to the log.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cronokirby/hwmont"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/shirou/gopsutil/mem"
)

// MemoryProber gives direct access to the operand memories of a multiplier.
type MemoryProber interface {
	WriteWord(block, index int, v uint32) error
	ReadWord(block, index int) (uint32, error)
}

// RegisterDumper renders the status registers of a multiplier.
type RegisterDumper interface {
	DumpRegisters() string
}

const (
	// The X operand memory
	probeBlock = 0
	probeValue = 0xDEAD_BEEF
)

// Options holds the collaborators of a Runner. Zero fields get defaults.
type Options struct {
	// Rand defaults to a Source seeded from the configuration.
	Rand io.Reader
	// Clock defaults to a MonotonicClock.
	Clock Clock
	// Out receives the CSV records, and defaults to discarding them.
	Out io.Writer
	// Logger defaults to a child of the root logger.
	Logger log.Logger
}

// Runner drives an accelerator through verification and benchmarking.
//
// The phases must run in order: MemoryCheck, Correctness, Debug, then
// Benchmark for each width. Run does all of this.
type Runner struct {
	cfg      Config
	acc      hwmont.Accelerator
	engine   *hwmont.Engine
	rand     io.Reader
	clock    Clock
	rec      *Recorder
	watchdog *Watchdog
	log      log.Logger

	state     phaseState
	summaries []Summary
}

// NewRunner creates a runner for the given accelerator.
func NewRunner(acc hwmont.Accelerator, cfg Config, opts Options) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:    cfg,
		acc:    acc,
		engine: hwmont.NewEngine(acc),
		rand:   opts.Rand,
		clock:  opts.Clock,
		log:    opts.Logger,
	}
	if r.log == nil {
		r.log = log.New("module", "bench")
	}
	if r.rand == nil {
		src, err := NewSource(cfg.Seed)
		if err != nil {
			return nil, err
		}
		r.log.Info("Seeded operand generator", "seed", src.Seed())
		r.rand = src
	}
	if r.clock == nil {
		r.clock = NewMonotonicClock()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	r.rec = NewRecorder(out)
	if cfg.WatchdogTimeout > 0 {
		r.watchdog = NewWatchdog(cfg.WatchdogTimeout, cfg.WatchdogFeedRate)
	}
	return r, nil
}

// Summaries returns the summaries of every benchmark run so far.
func (r *Runner) Summaries() []Summary {
	return r.summaries
}

// Run goes through every phase. It stops if the multiplier fails its memory
// or correctness checks, but a failing benchmark doesn't stop the others.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.Verify(ctx); err != nil {
		return err
	}
	if err := r.Debug(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		r.log.Error("Debug operation failed", "err", err)
	}
	var errs []error
	for _, w := range r.cfg.Widths {
		if err := r.Benchmark(ctx, w); err != nil {
			if ctx.Err() != nil {
				return err
			}
			r.log.Error("Benchmark phase failed", "bits", w.Bits, "err", err)
			errs = append(errs, err)
		}
	}
	if err := r.rec.Err(); err != nil {
		errs = append(errs, fmt.Errorf("writing records: %w", err))
	}
	return errors.Join(errs...)
}

// Verify runs the memory check and the correctness checks.
func (r *Runner) Verify(ctx context.Context) error {
	if err := r.MemoryCheck(ctx); err != nil {
		return err
	}
	return r.Correctness(ctx)
}

// MemoryCheck writes a word to the multiplier memory and reads it back.
//
// Multipliers that don't implement MemoryProber pass without being probed.
func (r *Runner) MemoryCheck(ctx context.Context) error {
	if err := r.begin(ctx, PhaseMemoryCheck, 0); err != nil {
		return err
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		r.log.Info("System memory", "total", common.StorageSize(vm.Total), "available", common.StorageSize(vm.Available))
	} else {
		r.log.Warn("Failed to retrieve system memory", "err", err)
	}

	prober, ok := r.acc.(MemoryProber)
	if !ok {
		r.log.Warn("Multiplier memory can't be probed, skipping")
		return nil
	}
	lease, err := hwmont.Acquire(r.acc)
	if err != nil {
		return err
	}
	defer lease.Release()

	if err := prober.WriteWord(probeBlock, 0, probeValue); err != nil {
		return fmt.Errorf("%w: %w", ErrMemoryProbe, err)
	}
	v, err := prober.ReadWord(probeBlock, 0)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMemoryProbe, err)
	}
	r.log.Info("Probed multiplier memory", "wrote", fmt.Sprintf("%#08x", probeValue), "read", fmt.Sprintf("%#08x", v))
	if v != probeValue {
		return fmt.Errorf("%w: wrote %#08x, read %#08x", ErrMemoryProbe, probeValue, v)
	}
	return nil
}

// Correctness compares small value results with the reference arithmetic.
func (r *Runner) Correctness(ctx context.Context) error {
	if err := r.begin(ctx, PhaseCorrectness, 0); err != nil {
		return err
	}
	if err := VerifySmallMult(r.engine, r.rand, r.cfg.VerifyIterations); err != nil {
		return err
	}
	return VerifySmallExp(r.engine, r.rand, r.cfg.VerifyIterations)
}

// Debug runs (2 * 3) mod 5 and 2^3 mod 5 in full width buffers, logging the
// multiplier registers around the multiplication when it exposes them.
func (r *Runner) Debug(ctx context.Context) error {
	if err := r.begin(ctx, PhaseDebug, 0); err != nil {
		return err
	}
	dumper, _ := r.acc.(RegisterDumper)
	dump := func(when string) {
		if dumper != nil {
			r.log.Debug("Multiplier registers "+when, "registers", dumper.DumpRegisters())
		}
	}

	m := hwmont.NatFromUint64(5, verifyWords)
	x := hwmont.NatFromUint64(2, verifyWords)
	y := hwmont.NatFromUint64(3, verifyWords)
	hctx, err := r.engine.NewContext(m)
	if err != nil {
		return err
	}

	r.log.Info("Testing (2 * 3) mod 5 = 1", "bits", 32*verifyWords)
	dump("before operation")
	z, err := r.engine.Multiply(hctx, x, y)
	dump("after operation")
	if err != nil {
		return err
	}
	if err := checkSmall(OpModMult, 0, 2, 3, 5, 1, z); err != nil {
		return err
	}

	e := hwmont.NatFromUint64(3, verifyWords)
	r.log.Info("Testing 2^3 mod 5 = 3", "steps", hwmont.Steps(e))
	z, err = r.engine.Exponentiate(hctx, x, e, nil)
	if err != nil {
		return err
	}
	if err := checkSmall(OpModExp, 0, 2, 3, 5, 3, z); err != nil {
		return err
	}
	r.log.Info("Hardware test passed")
	return nil
}

// benchOp is one operation to time repeatedly.
type benchOp struct {
	op, label  string
	bits       int
	iterations int
	// prepare draws fresh operands, outside the timed section.
	prepare func() error
	run     func() (*hwmont.Nat, error)
	// check verifies a result against the operands of the last prepare.
	check func(z *hwmont.Nat) error
}

// Benchmark times multiplication and both kinds of exponentiation against
// one random modulus of the given width.
func (r *Runner) Benchmark(ctx context.Context, w Width) error {
	first := r.state.phase != PhaseBenchmark
	if err := r.begin(ctx, PhaseBenchmark, w.Bits); err != nil {
		return err
	}
	if first {
		r.rec.Headers()
	}

	m, err := GenerateModulus(r.rand, w.Bits)
	if err != nil {
		return err
	}
	words := w.Bits / 32
	r.log.Info("Fixed modulus setup", "bits", w.Bits, "top", fmt.Sprintf("%#08x", m.Word(words-1)), "bottom", fmt.Sprintf("%#08x", m.Word(0)))
	hctx, err := r.engine.NewContext(m)
	if err != nil {
		return fmt.Errorf("context for %d-bit modulus: %w", w.Bits, err)
	}

	small, factors := ChooseSmallExponent()
	eSmall, err := SmallExponent(small, w.Bits)
	if err != nil {
		return err
	}
	eFull, err := FullExponent(r.rand, w.Bits)
	if err != nil {
		return err
	}
	r.log.Info("Chose small exponent", "target", smallExponentTarget, "value", small, "primes", formatFactors(factors))

	var x, y *hwmont.Nat
	drawX := func() (err error) {
		x, err = GenerateOperand(r.rand, w.Bits)
		return err
	}
	ops := []*benchOp{
		{
			op: OpModMult, label: LabelNone, bits: w.Bits, iterations: w.MultIterations,
			prepare: func() error {
				if err := drawX(); err != nil {
					return err
				}
				var err error
				y, err = GenerateOperand(r.rand, w.Bits)
				return err
			},
			run:   func() (*hwmont.Nat, error) { return r.engine.Multiply(hctx, x, y) },
			check: func(z *hwmont.Nat) error { return CrossCheckMul(m, x, y, z) },
		},
		{
			op: OpModExp, label: LabelSmall, bits: w.Bits, iterations: w.SmallExpIterations,
			prepare: drawX,
			run:     func() (*hwmont.Nat, error) { return r.engine.Exponentiate(hctx, x, eSmall, nil) },
			check:   func(z *hwmont.Nat) error { return CrossCheckExp(m, x, eSmall, z) },
		},
		{
			op: OpModExp, label: LabelFull, bits: w.Bits, iterations: w.FullExpIterations,
			prepare: drawX,
			run: func() (*hwmont.Nat, error) {
				return r.engine.Exponentiate(hctx, x, eFull, r.watchdog.Liveness())
			},
			check: func(z *hwmont.Nat) error { return CrossCheckExp(m, x, eFull, z) },
		},
	}

	var errs []error
	for _, op := range ops {
		if op.label == LabelFull && op.iterations > 0 {
			r.log.Info("Full-domain exponent timing can be very slow", "bits", w.Bits)
		}
		if err := r.measure(ctx, op); err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// measure runs one operation for its iteration count after the warm-up,
// recording every success, and stopping at the first failure.
func (r *Runner) measure(ctx context.Context, b *benchOp) error {
	if b.iterations == 0 {
		return nil
	}
	r.log.Info("Starting benchmark", "op", b.op, "bits", b.bits, "exp", b.label, "iterations", b.iterations, "warmup", r.cfg.Warmup)

	if b.label == LabelFull && r.watchdog != nil {
		r.watchdog.Start()
		defer r.watchdog.Stop()
	}
	for i := 0; i < r.cfg.Warmup; i++ {
		if err := b.prepare(); err != nil {
			return err
		}
		// Warm-up results don't count, failed or not.
		_, _ = b.run()
	}

	s := Summary{Op: b.op, Bits: b.bits, Label: b.label, Iterations: b.iterations}
	var (
		last *hwmont.Nat
		errs []error
	)
	for i := 0; i < b.iterations; i++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := b.prepare(); err != nil {
			errs = append(errs, err)
			break
		}
		start := r.clock.NowMicros()
		z, err := b.run()
		end := r.clock.NowMicros()
		if err != nil {
			r.log.Error("Benchmark iteration failed", "op", b.op, "bits", b.bits, "exp", b.label, "iteration", i, "err", err)
			errs = append(errs, &IterationError{Op: b.op, Bits: b.bits, Label: b.label, Iteration: i, Err: err})
			break
		}
		us := end - start
		s.Stats.Add(us)
		s.Successes++
		last = z
		r.rec.Record(b.op, b.bits, b.label, i+1, us)

		if b.iterations >= 5 && (i+1)%(b.iterations/5) == 0 {
			r.log.Info("Benchmark progress", "op", b.op, "exp", b.label, "done", i+1, "total", b.iterations)
		}
		if i == b.iterations-1 && r.cfg.CrossCheck && b.check != nil {
			if err := b.check(z); err != nil {
				errs = append(errs, err)
			} else {
				r.log.Info("Last result matches software implementation", "op", b.op, "exp", b.label)
			}
		}
	}

	if err := r.report(&s, last); err != nil {
		errs = append(errs, err)
	}
	r.rec.Summary(&s)
	r.summaries = append(r.summaries, s)
	return errors.Join(errs...)
}

// report logs the results of a run, and checks that its last result isn't zero.
func (r *Runner) report(s *Summary, last *hwmont.Nat) error {
	if s.Successes == 0 {
		r.log.Warn("No successful operations", "op", s.Op, "bits", s.Bits, "exp", s.Label)
		return nil
	}
	mean := s.Stats.Mean()
	r.log.Info("Benchmark results", "op", s.Op, "bits", s.Bits, "exp", s.Label,
		"successful", fmt.Sprintf("%d/%d", s.Successes, s.Iterations),
		"total", fmt.Sprintf("%dµs", s.Stats.Total()),
		"avg", fmt.Sprintf("%.2fµs", mean),
		"avgms", fmt.Sprintf("%.2fms", mean/1000),
		"stddev", fmt.Sprintf("%.2fµs", s.Stats.StdDev()),
		"min", fmt.Sprintf("%dµs", s.Stats.Min()),
		"max", fmt.Sprintf("%dµs", s.Stats.Max()))
	if last.IsZero() {
		r.log.Warn("Last result is zero", "op", s.Op, "bits", s.Bits, "exp", s.Label)
		return fmt.Errorf("%w: %s %d-bit (%s)", ErrZeroResult, s.Op, s.Bits, s.Label)
	}
	r.log.Debug("Last result is non-zero", "op", s.Op, "bits", s.Bits, "exp", s.Label)
	return nil
}

// begin enters a phase, unless ctx is done.
func (r *Runner) begin(ctx context.Context, p Phase, bits int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.state.enter(p, bits); err != nil {
		return err
	}
	r.log.Info("Entering phase", "phase", p, "bits", bits)
	return nil
}

func formatFactors(factors []uint32) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = fmt.Sprint(f)
	}
	return strings.Join(parts, "*")
}
