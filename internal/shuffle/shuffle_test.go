package shuffle

import (
	"slices"
	"testing"
)

func TestStringsDeterministic(t *testing.T) {
	items := []string{"alpha", "bravo", "charlie", "delta", "echo"}

	first := Strings(items, "card-123")
	for i := 0; i < 50; i++ {
		again := Strings(items, "card-123")
		if !slices.Equal(first, again) {
			t.Fatalf("run %d produced %v, want %v", i, again, first)
		}
	}
}

func TestStringsIsPermutation(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	out := Strings(items, "seed")

	if len(out) != len(items) {
		t.Fatalf("expected %d items, got %d", len(items), len(out))
	}
	sortedIn := slices.Clone(items)
	sortedOut := slices.Clone(out)
	slices.Sort(sortedIn)
	slices.Sort(sortedOut)
	if !slices.Equal(sortedIn, sortedOut) {
		t.Errorf("output %v is not a permutation of input %v", out, items)
	}
}

func TestStringsDoesNotMutateInput(t *testing.T) {
	items := []string{"one", "two", "three", "four"}
	original := slices.Clone(items)
	Strings(items, "whatever")
	if !slices.Equal(items, original) {
		t.Errorf("input was mutated: %v", items)
	}
}

func TestStringsSeedSensitivity(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	// With ten items, at least one of a handful of distinct seeds should
	// produce a different order.
	base := Strings(items, "seed-0")
	differs := false
	for _, seed := range []string{"seed-1", "seed-2", "seed-3", "seed-4"} {
		if !slices.Equal(base, Strings(items, seed)) {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("all seeds produced identical permutations")
	}
}

func TestStringsEdgeSizes(t *testing.T) {
	if out := Strings(nil, "s"); len(out) != 0 {
		t.Errorf("expected empty output for nil input, got %v", out)
	}
	if out := Strings([]string{"only"}, "s"); len(out) != 1 || out[0] != "only" {
		t.Errorf("expected single item unchanged, got %v", out)
	}
}

func TestHashSeedStable(t *testing.T) {
	// Pin the hash so an accidental change to the folding constant shows
	// up as a test failure rather than as silently reshuffled cards.
	if got := hashSeed("abc"); got != 96354 {
		t.Errorf("hashSeed(%q) = %d, want 96354", "abc", got)
	}
	if got := hashSeed(""); got != 0 {
		t.Errorf("hashSeed(\"\") = %d, want 0", got)
	}
}
