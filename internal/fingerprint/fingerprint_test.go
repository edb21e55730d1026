package fingerprint

import "testing"

func TestStandard(t *testing.T) {
	t.Run("hash is deterministic", func(t *testing.T) {
		if Standard("What is Go?", "A language.") != Standard("What is Go?", "A language.") {
			t.Error("Expected hashes for identical cards to be the same")
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		a := Standard("  what is go? ", "A programming language.")
		b := Standard("What Is Go?", "A programming language.")
		if a != b {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("different cards have different hashes", func(t *testing.T) {
		if Standard("Card 1", "x") == Standard("Card 2", "x") {
			t.Error("Expected hashes for different cards to be different")
		}
	})

	t.Run("field boundaries are preserved", func(t *testing.T) {
		if Standard("question", "answer") == Standard("questionanswer", "") {
			t.Error("Expected joined fields to hash differently from split fields")
		}
	})
}

func TestList(t *testing.T) {
	items := []string{"Lorazepam", "Diazepam", "Midazolam"}

	t.Run("sibling order does not matter", func(t *testing.T) {
		a := List("agents", "Lorazepam", []string{"Diazepam", "Midazolam"})
		b := List("agents", "Lorazepam", []string{"Midazolam", "Diazepam"})
		if a != b {
			t.Error("Expected the hash to ignore sibling ordering")
		}
	})

	t.Run("target matters", func(t *testing.T) {
		if List("agents", "Lorazepam", items) == List("agents", "Diazepam", items) {
			t.Error("Expected different targets to produce different hashes")
		}
	})

	t.Run("membership matters", func(t *testing.T) {
		if List("agents", "Lorazepam", items) == List("agents", "Lorazepam", items[:2]) {
			t.Error("Expected a changed sibling set to change the hash")
		}
	})

	t.Run("input not mutated", func(t *testing.T) {
		in := []string{"b", "a"}
		List("t", "x", in)
		if in[0] != "b" || in[1] != "a" {
			t.Errorf("input slice reordered: %v", in)
		}
	})
}
