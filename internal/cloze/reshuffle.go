package cloze

import (
	"slices"
	"strings"

	"github.com/conorfennell/practicebank/internal/shuffle"
)

// ReshuffleContext re-renders the shuffled sibling context of a stored
// list-cloze front, keyed by the card's immutable id. Because the seed
// and the context set are both fixed, the output is byte-identical to
// what generation produced, at every review.
//
// The front is parsed back into title, context items, and ellipsis flag.
// Fronts that do not match the "title: {{c1::???}}, items..." shape are
// returned unchanged: this runs during render and must never take down
// a review session.
func ReshuffleContext(front, cardID string) string {
	title, items, more, ok := parseFront(front)
	if !ok || len(items) == 0 {
		return front
	}

	canonical := slices.Clone(items)
	slices.Sort(canonical)
	return renderFront(title, shuffle.Strings(canonical, cardID), more)
}

// parseFront inverts renderFront. Context items containing ", " cannot
// be recovered from the rendered text; callers that need to survive
// such content should reshuffle from the card's structured ContextItems
// instead of the front string.
func parseFront(front string) (title string, items []string, more bool, ok bool) {
	segs := Lex(front)
	if len(segs) < 2 || len(segs) > 3 {
		return "", nil, false, false
	}
	if segs[0].Cloze || !segs[1].Cloze {
		return "", nil, false, false
	}
	if segs[1].Index != 1 || segs[1].Text != placeholder {
		return "", nil, false, false
	}

	title, found := strings.CutSuffix(segs[0].Text, ": ")
	if !found || title == "" {
		return "", nil, false, false
	}

	if len(segs) == 3 {
		tail, found := strings.CutPrefix(segs[2].Text, ", ")
		if !found {
			return "", nil, false, false
		}
		parts := strings.Split(tail, ", ")
		if parts[len(parts)-1] == "..." {
			more = true
			parts = parts[:len(parts)-1]
		}
		if len(parts) == 0 {
			return "", nil, false, false
		}
		for _, p := range parts {
			if p == "" {
				return "", nil, false, false
			}
		}
		items = parts
	}

	return title, items, more, true
}
