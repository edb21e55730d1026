package cloze

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/conorfennell/practicebank/internal/domain"
	"github.com/conorfennell/practicebank/internal/shuffle"
)

// maxContextItems caps how many sibling items a list-cloze front shows.
const maxContextItems = 3

// placeholder stands in for the hidden answer inside the cloze marker.
const placeholder = "???"

var (
	ErrEmptyTitle = errors.New("cloze: list title is empty")
	ErrBlankItem  = errors.New("cloze: list contains a blank item")
)

// Generate converts one detected list of K facts into K independently
// schedulable cards. Each card tests exactly one item and shows up to
// three *other* items as shuffled distractor context, never the target.
// The shuffle is keyed by the card's id, which is immutable, so every
// future review renders the identical context order.
//
// K=0 yields no cards. K=1 yields a single plain cloze card with no
// context. All cards share one freshly generated parent list id and are
// created banked (present in the practice bank, not yet in the queue).
func Generate(items []string, title string) ([]domain.Card, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	cleaned := make([]string, len(items))
	for i, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("%w: position %d", ErrBlankItem, i)
		}
		cleaned[i] = item
	}

	if len(cleaned) == 0 {
		return nil, nil
	}

	parentID := uuid.NewString()

	if len(cleaned) == 1 {
		card := newBankedCard(title, parentID, 0)
		card.Type = domain.TypeCloze
		card.Front = renderFront(title, nil, false)
		card.Back = cleaned[0]
		card.TargetItem = cleaned[0]
		return []domain.Card{card}, nil
	}

	cards := make([]domain.Card, 0, len(cleaned))
	for i, target := range cleaned {
		card := newBankedCard(title, parentID, i)
		card.Type = domain.TypeListCloze
		card.Back = target
		card.TargetItem = target

		siblings := make([]string, 0, len(cleaned)-1)
		siblings = append(siblings, cleaned[:i]...)
		siblings = append(siblings, cleaned[i+1:]...)

		shown := shuffle.Strings(siblings, card.ID)
		if len(shown) > maxContextItems {
			shown = shown[:maxContextItems]
		}

		// Canonical order is what gets stored; the rendered order is a
		// deterministic shuffle of it, so the render-time parser can
		// recover the canonical set and reproduce the exact same text.
		canonical := slices.Clone(shown)
		slices.Sort(canonical)
		card.ContextItems = canonical

		more := len(siblings) > len(shown)
		card.Front = renderFront(title, shuffle.Strings(canonical, card.ID), more)

		cards = append(cards, card)
	}
	return cards, nil
}

func newBankedCard(title, parentID string, position int) domain.Card {
	return domain.Card{
		ID:               uuid.NewString(),
		ParentListID:     parentID,
		ListPosition:     position,
		Maturity:         domain.MaturityNew,
		ActivationStatus: domain.StatusBanked,
	}
}

// renderFront formats a cloze front: "title: {{c1::???}}, a, b, c" with
// a trailing ", ..." when more siblings exist than are shown. This is
// the one rendering path for both generation and reshuffle-at-review.
func renderFront(title string, context []string, more bool) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString(": ")
	b.WriteString(RenderCloze(1, placeholder))
	for _, item := range context {
		b.WriteString(", ")
		b.WriteString(item)
	}
	if more {
		b.WriteString(", ...")
	}
	return b.String()
}
