// Package rng provides the pluggable per-thread random state used by the
// tracer. spec.md §4.1 requires two independent states per worker thread —
// one for source sampling, one for reflection sampling — because sharing a
// single stream between the two measurably increases estimator variance.
package rng

import "math/rand"

// Source produces unsigned integers uniformly in [Min(), Max()], and can
// clone its own state. A pluggable capability interface rather than a
// closed variant, per Design Notes §9 ("a capability interface where
// extensibility matters (RNG, reader)").
type Source interface {
	Get() uint64
	Min() uint64
	Max() uint64
	Clone() Source
	// Float01 draws a uniform sample in [0, 1). Convenience built on Get,
	// used throughout the reflection and source samplers.
	Float01() float32
}

// mt64Source wraps math/rand.Rand; no bespoke generator exists anywhere in
// the retrieved dependency corpus (every example repo doing Monte
// Carlo-style sampling — pthm-soup, ccnlab-lvis — reaches directly for
// math/rand), so this is the grounded choice rather than a hand-rolled PRNG.
type mt64Source struct {
	rnd *rand.Rand
}

const maxUint64 = ^uint64(0)

// NewSource builds a deterministic source from an integer seed.
func NewSource(seed int64) Source {
	return &mt64Source{rnd: rand.New(rand.NewSource(seed))}
}

func (s *mt64Source) Get() uint64 { return s.rnd.Uint64() }
func (s *mt64Source) Min() uint64 { return 0 }
func (s *mt64Source) Max() uint64 { return maxUint64 }

func (s *mt64Source) Float01() float32 {
	return float32(s.rnd.Float64())
}

func (s *mt64Source) Clone() Source {
	// rand.Rand itself isn't cloneable without re-seeding, so the clone is
	// seeded with one value drawn from the source being cloned. That draw
	// advances the original by one value; the clone's stream differs from
	// the original's, draws from it leave the original untouched, and it
	// is reproducible from the parent's state at the time of the call.
	seed := int64(s.rnd.Uint64())
	return NewSource(seed)
}

// ThreadSeeds returns the two seeds a worker thread should use for its
// source- and reflection-sampling states, per spec.md §4.1's seed policy:
// seed_i = (thread_index + 1) * 29, with a fixed +2 offset for the second
// state. base lets the CLI's --seed flag shift the whole run
// deterministically without changing the relative policy between threads.
func ThreadSeeds(base int64, threadIndex int) (sourceSeed, reflectSeed int64) {
	sourceSeed = base + int64(threadIndex+1)*29
	reflectSeed = sourceSeed + 2
	return sourceSeed, reflectSeed
}
