package bench

import (
	"fmt"
	"io"
)

// Operation names, as they appear in records.
const (
	OpModMult = "modmult"
	OpModExp  = "modexp"
)

// Exponent labels, as they appear in records.
const (
	LabelNone  = "na"
	LabelSmall = "small"
	LabelFull  = "full"
)

const (
	recordHeader  = "CSV_HEADER,op,bits,exp,iter,us"
	summaryHeader = "CSV_SUMMARY_HEADER,op,bits,exp,iter,success,avg_us,min_us,max_us,stddev_us"
)

// Summary is the outcome of running one operation for a number of iterations.
type Summary struct {
	Op         string
	Bits       int
	Label      string
	Iterations int // requested, not completed
	Successes  int
	Stats      Stats
}

// Recorder writes machine readable benchmark records.
//
// Write errors are sticky: after the first one nothing more is written, and
// Err reports it.
type Recorder struct {
	w   io.Writer
	err error
}

// NewRecorder creates a recorder writing lines to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w}
}

func (r *Recorder) printf(format string, args ...interface{}) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

// Headers writes the column names of both record kinds.
func (r *Recorder) Headers() {
	r.printf("%s\n%s\n", recordHeader, summaryHeader)
}

// Record writes the timing of one successful iteration, counted from 1.
func (r *Recorder) Record(op string, bits int, label string, iteration int, us uint64) {
	r.printf("CSV,%s,%d,%s,%d,%d\n", op, bits, label, iteration, us)
}

// Summary writes the aggregate of a finished run.
func (r *Recorder) Summary(s *Summary) {
	r.printf("CSV_SUMMARY,%s,%d,%s,%d,%d,%.2f,%d,%d,%.2f\n",
		s.Op, s.Bits, s.Label, s.Iterations, s.Successes,
		s.Stats.Mean(), s.Stats.Min(), s.Stats.Max(), s.Stats.StdDev())
}

// Err returns the first error encountered while writing.
func (r *Recorder) Err() error {
	return r.err
}
