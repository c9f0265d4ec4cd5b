package bench

import "fmt"

// Phase is a stage of a benchmark run. Phases run in the order they are
// declared, each at most once, except Benchmark which runs once per width.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseMemoryCheck
	PhaseCorrectness
	PhaseDebug
	PhaseBenchmark
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseMemoryCheck:
		return "memory-check"
	case PhaseCorrectness:
		return "correctness"
	case PhaseDebug:
		return "debug"
	case PhaseBenchmark:
		return "benchmark"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// phaseState tracks the last phase entered.
type phaseState struct {
	phase Phase
	bits  int
}

// enter moves to phase p, for the given width if p is PhaseBenchmark.
//
// Every phase must directly follow the one before it. Benchmark phases can
// follow each other, as long as their widths increase.
func (s *phaseState) enter(p Phase, bits int) error {
	switch {
	case p == s.phase+1:
	case p == PhaseBenchmark && s.phase == PhaseBenchmark && bits > s.bits:
	default:
		if p == PhaseBenchmark {
			return fmt.Errorf("%w: %s(%d) after %s(%d)", ErrPhaseOrder, p, bits, s.phase, s.bits)
		}
		return fmt.Errorf("%w: %s after %s", ErrPhaseOrder, p, s.phase)
	}
	s.phase, s.bits = p, bits
	return nil
}
