package rng

// Generator is the source of randomness for shuffles and code generation
type Generator interface {
	// Intn returns a random number in [0, n)
	Intn(n int) int
}
