package core

import (
	"math/rand/v2"
	"sync"
)

// Sampler draws unassigned numbers uniformly at random without replacement.
// It is safe for concurrent use; each call draws fresh values from the
// source, so repeated calls over the same input are independent.
type Sampler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSampler creates a sampler backed by src. A nil src uses a PCG source
// seeded from the runtime's random generator.
func NewSampler(src rand.Source) *Sampler {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Sampler{rnd: rand.New(src)}
}

// NewSeededSampler creates a deterministic sampler for tests and replays.
func NewSeededSampler(seed uint64) *Sampler {
	return NewSampler(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sample returns min(n, k) records drawn from the k unassigned records in
// records. Assigned records are never returned and no id appears twice.
// A non-positive n returns an empty slice.
//
// The draw is a partial Fisher-Yates shuffle over a copy of the unassigned
// records, so every subset of size n is equally likely regardless of the
// input order. records itself is not modified.
func (s *Sampler) Sample(records []NumberRecord, n int) []NumberRecord {
	pool := make([]NumberRecord, 0, len(records))
	for _, r := range records {
		if r.Unassigned() {
			pool = append(pool, r.clone())
		}
	}

	if n <= 0 {
		return []NumberRecord{}
	}
	if n >= len(pool) {
		return pool
	}

	s.mu.Lock()
	for i := range n {
		j := i + s.rnd.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	s.mu.Unlock()

	return pool[:n:n]
}
