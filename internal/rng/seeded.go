package rng

import "math/rand"

// Seeded is a deterministic Generator for tests and simulations.
// It is not safe for concurrent use.
type Seeded struct {
	r *rand.Rand
}

// NewSeeded returns a Seeded generator for the given seed
func NewSeeded(seed int64) *Seeded {
	return &Seeded{r: rand.New(rand.NewSource(seed))}
}

// Intn returns a random number in [0, n)
func (s *Seeded) Intn(n int) int {
	return s.r.Intn(n)
}
