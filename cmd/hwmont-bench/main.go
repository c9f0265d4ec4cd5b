// hwmont-bench verifies and benchmarks Montgomery arithmetic on the
// emulated hardware multiplier.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/arsham/figurine/figurine"
	"github.com/cronokirby/hwmont/bench"
	"github.com/cronokirby/hwmont/emulator"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML configuration file",
	}
	seedFlag = &cli.Uint64Flag{
		Name:  "seed",
		Usage: "Seed for operand generation (0 = random)",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	csvFlag = &cli.StringFlag{
		Name:  "csv",
		Usage: "Write CSV records to this file instead of stdout",
	}
	crossCheckFlag = &cli.BoolFlag{
		Name:  "crosscheck",
		Usage: "Check the last result of every benchmark against a software implementation",
	}
)

var commands = []*cli.Command{
	{
		Name:   "run",
		Usage:  "Run the memory check, correctness checks, debug operation and benchmarks",
		Flags:  []cli.Flag{csvFlag, crossCheckFlag},
		Action: runBenchmarks,
	},
	{
		Name:   "verify",
		Usage:  "Run the memory check and correctness checks only",
		Action: runVerify,
	},
	{
		Name:   "dumpconfig",
		Usage:  "Show configuration values",
		Flags:  []cli.Flag{crossCheckFlag},
		Action: dumpConfig,
	},
}

func main() {
	app := &cli.App{
		Name:     "hwmont-bench",
		Usage:    "Montgomery multiplier verification and benchmarks",
		Flags:    []cli.Flag{configFileFlag, seedFlag, verbosityFlag},
		Commands: commands,
		Before:   setupLogging,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	usecolor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	output := io.Writer(os.Stderr)
	if usecolor {
		output = colorable.NewColorableStderr()
	}
	level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(output, level, usecolor)))
	return nil
}

func printBanner() {
	if err := figurine.Write(os.Stderr, "hwmont", "3d.flf"); err != nil {
		log.Debug("Failed to print banner", "err", err)
	}
}

// session is what both the run and verify commands need.
type session struct {
	dev    *emulator.Device
	runner *bench.Runner
	ctx    context.Context
	stop   context.CancelFunc
	close  func()
}

func newSession(ctx *cli.Context) (*session, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, err
	}
	printBanner()

	runID := uuid.New().String()
	log.Info("System information", "run", runID, "os", runtime.GOOS, "arch", runtime.GOARCH, "cpus", runtime.NumCPU(), "go", runtime.Version())
	log.Info("Multiplier geometry", "granularity", 32*cfg.Hardware.BlockWords, "maxbits", 32*cfg.Hardware.MaxWords)

	out, closeOut, err := openOutput(ctx.String(csvFlag.Name))
	if err != nil {
		return nil, err
	}
	dev := emulator.New(cfg.Hardware)
	runner, err := bench.NewRunner(dev, cfg.Bench, bench.Options{
		Out:    out,
		Logger: log.New("run", runID),
	})
	if err != nil {
		closeOut()
		return nil, err
	}
	sigctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	return &session{
		dev:    dev,
		runner: runner,
		ctx:    sigctx,
		stop:   stop,
		close:  closeOut,
	}, nil
}

func (s *session) finish() {
	s.stop()
	s.close()
	c := s.dev.Counters()
	log.Info("Multiplier usage", "enables", c.Enables, "disables", c.Disables, "mulmods", c.MulMods, "montmuls", c.MontMuls, "faults", c.Faults)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {
		if err := f.Close(); err != nil {
			log.Error("Failed to close CSV file", "path", path, "err", err)
		}
	}, nil
}

// runBenchmarks is the run command.
func runBenchmarks(ctx *cli.Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.finish()

	err = s.runner.Run(s.ctx)
	if summaries := s.runner.Summaries(); len(summaries) > 0 {
		bench.WriteTable(os.Stderr, summaries)
	}
	if err != nil {
		return err
	}
	log.Info("Benchmark complete")
	return nil
}

// runVerify is the verify command.
func runVerify(ctx *cli.Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.finish()

	if err := s.runner.Verify(s.ctx); err != nil {
		return err
	}
	log.Info("Multiplier verified")
	return nil
}
