// Package shuffle provides a deterministic seeded permutation.
//
// Review rendering depends on the same shuffled context appearing at
// every future review of a card, so the permutation must be a pure
// function of its inputs across processes and platforms. math/rand is
// unsuitable: its Shuffle is not specified stable across Go releases.
package shuffle

import "slices"

// lcg is a linear-congruential generator with the classic 9301/49297
// multiplier/increment pair over modulus 233280. Small state, but the
// permutations here are at most a handful of items.
type lcg struct {
	state uint32
}

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// hashSeed folds a seed string into a 32-bit state. Multiply-by-31
// rolling hash over the raw bytes; byte-oriented so the result does not
// depend on how the platform iterates runes.
func hashSeed(seed string) uint32 {
	var h uint32
	for i := 0; i < len(seed); i++ {
		h = h*31 + uint32(seed[i])
	}
	return h
}

func newLCG(seed string) *lcg {
	return &lcg{state: hashSeed(seed) % lcgModulus}
}

// next returns a pseudo-random float in [0, 1).
func (g *lcg) next() float64 {
	g.state = (g.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(g.state) / lcgModulus
}

// Strings returns a new slice holding a deterministic permutation of
// items keyed by seed. The input is not mutated. Same items and seed
// always produce the same order.
func Strings(items []string, seed string) []string {
	out := slices.Clone(items)
	g := newLCG(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := int(g.next() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
