// Package emulator provides a software model of a memory-mapped modular
// multiplier block.
//
// The block has four operand memories (X, Y, M and Z), works on operands that
// are a multiple of its block granularity, and has to be enabled before use.
// It runs either a single Montgomery pass, or two passes back to back, which
// gives a plain modular product when Z is preloaded with R^2 mod M.
package emulator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/log"
)

// The operand memories of the block, as used by ReadWord and WriteWord.
const (
	BlockX = iota
	BlockY
	BlockM
	BlockZ
	numBlocks
)

const (
	// DefaultBlockWords is the granularity of the block: 512 bits.
	DefaultBlockWords = 16
	// DefaultMaxWords is the width of each operand memory: 4096 bits.
	DefaultMaxWords = 128
)

var (
	ErrBusy        = errors.New("emulator: multiplier already enabled")
	ErrDisabled    = errors.New("emulator: multiplier not enabled")
	ErrOperandSize = errors.New("emulator: operand length does not match hardware words")
	ErrTooWide     = errors.New("emulator: operand exceeds memory width")
	ErrEvenModulus = errors.New("emulator: modulus must be odd")
	ErrBlockRange  = errors.New("emulator: block address out of range")
	ErrInjected    = errors.New("emulator: injected fault")
)

// Config describes the geometry of the emulated block.
type Config struct {
	BlockWords int
	MaxWords   int
}

// DefaultConfig matches a 4096-bit multiplier with 512-bit granularity.
var DefaultConfig = Config{
	BlockWords: DefaultBlockWords,
	MaxWords:   DefaultMaxWords,
}

// Registers is a snapshot of the status registers of the block.
type Registers struct {
	Enabled   bool
	Clean     bool   // memories have been initialized
	Mode      uint32 // operand length in blocks, minus one
	MPrime    uint32
	Interrupt uint32 // set when an operation finished, cleared on the next start
}

// Counters tracks how the block has been used since it was created.
type Counters struct {
	Enables  uint64
	Disables uint64
	MulMods  uint64
	MontMuls uint64
	Faults   uint64
}

// Device is the emulated multiplier.
//
// A Device is safe for use from multiple goroutines, but only one of them
// can have it enabled at a time.
type Device struct {
	cfg Config
	log log.Logger

	mu       sync.Mutex
	enabled  bool
	mem      [numBlocks][]uint32
	scratch  []uint32
	regs     Registers
	counters Counters
	// failIn counts down the operations until an injected fault, 0 meaning never.
	failIn uint64
}

// New creates a device with the given geometry.
func New(cfg Config) *Device {
	if cfg.BlockWords <= 0 {
		cfg.BlockWords = DefaultBlockWords
	}
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = DefaultMaxWords
	}
	d := &Device{
		cfg:     cfg,
		log:     log.New("module", "emulator"),
		scratch: make([]uint32, cfg.MaxWords),
	}
	for i := range d.mem {
		d.mem[i] = make([]uint32, cfg.MaxWords)
	}
	return d
}

// HardwareWords rounds a word count up to the block granularity.
func (d *Device) HardwareWords(words int) int {
	n := d.cfg.BlockWords
	return (words + n - 1) / n * n
}

// Enable powers up the block. It fails if the block is already enabled,
// whoever enabled it.
func (d *Device) Enable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enabled {
		d.log.Warn("Rejected nested enable of multiplier")
		return ErrBusy
	}
	d.enabled = true
	d.regs.Enabled = true
	d.regs.Clean = true
	d.counters.Enables++
	return nil
}

// Disable powers down the block. Disabling a block that isn't enabled does
// nothing.
func (d *Device) Disable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.enabled {
		return
	}
	d.enabled = false
	d.regs.Enabled = false
	d.counters.Disables++
}

// MulMod computes z = x * y mod m using two Montgomery passes. rinv must hold
// 2^(64 * hwWords) mod m.
func (d *Device) MulMod(z, x, y, m, rinv []uint32, mprime uint32, hwWords int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.start(hwWords, mprime, z, x, y, m, rinv); err != nil {
		return err
	}
	d.load(BlockX, x)
	d.load(BlockY, y)
	d.load(BlockM, m)
	d.load(BlockZ, rinv)

	// First pass: x * R^2 / R = x * R, second pass: x * R * y / R = x * y.
	t := d.scratch[:hwWords]
	montgomeryMul(t, d.mem[BlockX][:hwWords], d.mem[BlockZ][:hwWords], d.mem[BlockM][:hwWords], mprime)
	montgomeryMul(d.mem[BlockZ][:hwWords], t, d.mem[BlockY][:hwWords], d.mem[BlockM][:hwWords], mprime)

	d.counters.MulMods++
	d.finish(z, hwWords)
	return nil
}

// MontMul computes z = x * y * 2^(-32 * hwWords) mod m in a single pass.
func (d *Device) MontMul(z, x, y, m []uint32, mprime uint32, hwWords int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.start(hwWords, mprime, z, x, y, m); err != nil {
		return err
	}
	d.load(BlockX, x)
	d.load(BlockY, y)
	d.load(BlockM, m)

	montgomeryMul(d.mem[BlockZ][:hwWords], d.mem[BlockX][:hwWords], d.mem[BlockY][:hwWords], d.mem[BlockM][:hwWords], mprime)

	d.counters.MontMuls++
	d.finish(z, hwWords)
	return nil
}

// start checks the operands and programs the mode registers. d.mu must be held.
func (d *Device) start(hwWords int, mprime uint32, operands ...[]uint32) error {
	if !d.enabled {
		return ErrDisabled
	}
	if hwWords <= 0 || hwWords%d.cfg.BlockWords != 0 {
		return fmt.Errorf("%w: %d words is not a multiple of %d", ErrOperandSize, hwWords, d.cfg.BlockWords)
	}
	if hwWords > d.cfg.MaxWords {
		return fmt.Errorf("%w: %d > %d words", ErrTooWide, hwWords, d.cfg.MaxWords)
	}
	for _, op := range operands {
		if len(op) != hwWords {
			return fmt.Errorf("%w: got %d, want %d", ErrOperandSize, len(op), hwWords)
		}
	}
	// The modulus is the fourth operand for both modes.
	if operands[3][0]&1 == 0 {
		return ErrEvenModulus
	}
	if d.failIn > 0 {
		d.failIn--
		if d.failIn == 0 {
			d.counters.Faults++
			d.log.Debug("Injecting multiplier fault")
			return ErrInjected
		}
	}
	d.regs.Mode = uint32(hwWords/d.cfg.BlockWords) - 1
	d.regs.MPrime = mprime
	d.regs.Interrupt = 0
	return nil
}

// finish copies the result out of the Z memory. d.mu must be held.
func (d *Device) finish(z []uint32, hwWords int) {
	copy(z, d.mem[BlockZ][:hwWords])
	d.regs.Interrupt = 1
}

func (d *Device) load(block int, data []uint32) {
	copy(d.mem[block], data)
}

// WriteWord stores one word in an operand memory of an enabled block.
func (d *Device) WriteWord(block, index int, v uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAddress(block, index); err != nil {
		return err
	}
	d.mem[block][index] = v
	return nil
}

// ReadWord loads one word from an operand memory of an enabled block.
func (d *Device) ReadWord(block, index int) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkAddress(block, index); err != nil {
		return 0, err
	}
	return d.mem[block][index], nil
}

func (d *Device) checkAddress(block, index int) error {
	if !d.enabled {
		return ErrDisabled
	}
	if block < 0 || block >= numBlocks || index < 0 || index >= d.cfg.MaxWords {
		return fmt.Errorf("%w: block %d, word %d", ErrBlockRange, block, index)
	}
	return nil
}

// Registers returns a snapshot of the status registers.
func (d *Device) Registers() Registers {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs
}

// DumpRegisters renders the status registers for debugging output.
func (d *Device) DumpRegisters() string {
	return spew.Sdump(d.Registers())
}

// Counters returns the usage counters of the block.
func (d *Device) Counters() Counters {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counters
}

// FailAfter makes the n-th operation from now fail with ErrInjected.
// Passing 0 disarms a pending fault.
func (d *Device) FailAfter(n uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failIn = n
}
