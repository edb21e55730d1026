// Package fingerprint computes stable content hashes for cards.
//
// Sync identity hangs off these hashes: a card that still exists in its
// source keeps its hash, its row, and crucially its id, so the id-seeded
// context shuffle never changes under it. Editing the content produces
// a new hash, which sync treats as delete-and-recreate.
package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"
)

// normalize trims whitespace, lowercases, and normalizes line endings
// so cosmetic edits do not change a card's identity.
func normalize(part string) string {
	p := strings.ToLower(part)
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\r\n", "\n")
	return p
}

// hash joins the normalized parts with newlines, preventing accidental
// joining of adjacent fields, and returns the SHA-256 hex digest.
func hash(parts []string) string {
	for i, p := range parts {
		parts[i] = normalize(p)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return fmt.Sprintf("%x", sum)
}

// Standard returns the content hash of a question/answer card.
func Standard(question, answer string) string {
	return hash([]string{question, answer})
}

// List returns the content hash of one list-cloze card. The sibling
// items are sorted before hashing so the hash depends on the list's
// membership, not its ordering; the target stays positional because it
// is the fact under test.
func List(title, target string, items []string) string {
	sorted := slices.Clone(items)
	slices.Sort(sorted)
	parts := make([]string, 0, len(sorted)+2)
	parts = append(parts, title, target)
	parts = append(parts, sorted...)
	return hash(parts)
}
