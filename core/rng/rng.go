// Package rng provides the seeded random streams of an experiment.
//
// A run needs three independent streams: one for shuffling loaders, one for
// assigning samples to folds and one for parameter initialization and
// dropout. All of them derive from the single configured seed, so two runs
// with the same seed split the data and initialize every model identically.
package rng

import (
	"hash/fnv"
	"math/rand/v2"
	"runtime"

	"github.com/klauspost/cpuid/v2"

	"github.com/YuminosukeSato/nam/pkg/log"
)

// Seeds holds the streams of one run. The streams are not safe for
// concurrent use; Derive a child stream per goroutine instead.
type Seeds struct {
	seed uint64

	Shuffle *rand.Rand
	Split   *rand.Rand
	Weights *rand.Rand
}

// New returns a PCG-backed generator for seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// InitRandomSeeds seeds every stream of a run from seed.
func InitRandomSeeds(seed int64) *Seeds {
	s := &Seeds{seed: uint64(seed)}
	s.Shuffle = s.stream("shuffle")
	s.Split = s.stream("split")
	s.Weights = s.stream("weights")

	log.GetLoggerWithName("rng").Debug("Computation is using CPU...",
		log.RandomSeedKey, seed,
		"cpus", runtime.NumCPU(),
		"cpu_brand", cpuid.CPU.BrandName,
		"physical_cores", cpuid.CPU.PhysicalCores,
	)
	return s
}

// Seed returns the seed the streams were derived from.
func (s *Seeds) Seed() int64 {
	return int64(s.seed)
}

// Derive returns a new stream for the named consumer. The same seed and
// label always produce the same stream, independent of how much the other
// streams have been consumed.
func (s *Seeds) Derive(label string) *rand.Rand {
	return s.stream(label)
}

func (s *Seeds) stream(label string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(label))
	return rand.New(rand.NewPCG(s.seed, h.Sum64()))
}
