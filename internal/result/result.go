// Package result holds the tracer's output record: timings, counts, and
// per-primitive arrays, per spec.md §2 item 10 and §7's
// `fallback_used` flag.
package result

import (
	"time"

	"github.com/google/uuid"

	"github.com/fluxtrace/fluxtrace/internal/accum"
)

// Result is the complete outcome of one tracer run, consumed by
// internal/vtpio to produce the output file.
type Result struct {
	RunID           string // uuid.NewString(), stamped once per Run call
	InputFile       string
	RayCount        int
	WallClock       time.Duration
	ThreadCount     int
	FallbackUsed    bool // mixture fit failed; single-Gaussian fallback ran (spec.md §7)
	RejectedSamples int  // phase-3 mixture samples rejected by rectangle restriction (spec.md §4.6)

	Deposited   []float64
	ExposedArea []float64
	HitCount    []uint64
}

// FromAccumulator builds a Result's per-primitive arrays from a reduced
// accumulator, leaving the run-metadata fields for the caller to fill.
func FromAccumulator(acc *accum.HitAccumulator) Result {
	return Result{
		RunID:       uuid.NewString(),
		Deposited:   append([]float64(nil), acc.Deposited...),
		ExposedArea: append([]float64(nil), acc.ExposedArea...),
		HitCount:    append([]uint64(nil), acc.HitCount...),
	}
}

// TotalDeposited sums deposited weight across all primitives, used by
// the unbiasedness property tests (spec.md §8 scenario 4).
func (r Result) TotalDeposited() float64 {
	var total float64
	for _, d := range r.Deposited {
		total += d
	}
	return total
}
