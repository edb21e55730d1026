// Package maturity derives a card's review tier from scheduler output
// and implements the explicit lifecycle actions.
//
// The tier is recomputed from scratch on every review rather than
// incremented in place, so it can never drift from the scheduler state.
package maturity

import (
	"errors"
	"time"

	"github.com/conorfennell/practicebank/internal/domain"
	"github.com/conorfennell/practicebank/internal/fsrs"
)

// MatureIntervalDays is the scheduled interval at which a Review-state
// card counts as mature.
const MatureIntervalDays = 60

// ResurrectIntervalDays is the warm-up interval granted to a resurrected
// card: it comes back partially warmed up, not starting over.
const ResurrectIntervalDays = 7

var (
	ErrAlreadyActive = errors.New("maturity: card is already active")
	ErrNotRetired    = errors.New("maturity: card is not retired")
	ErrRetired       = errors.New("maturity: card is retired")
)

// Derive maps the scheduler's discrete state and scheduled interval to
// a maturity tier. Pure: the result depends only on the arguments,
// never on the card's previous tier.
func Derive(state fsrs.State, scheduledDays float64) domain.MaturityState {
	switch state {
	case fsrs.StateNew:
		return domain.MaturityNew
	case fsrs.StateLearning, fsrs.StateRelearning:
		return domain.MaturityLearning
	default: // fsrs.StateReview
		if scheduledDays >= MatureIntervalDays {
			return domain.MaturityMature
		}
		return domain.MaturityReviewing
	}
}

// Activate surfaces a banked card into the review queue, due today.
// Activating an already-active card is an invalid-state error, not a
// silent no-op. Retired is terminal: the only way back into the queue
// is Resurrect, which keeps earned progress instead of resetting to new.
func Activate(card domain.Card, now time.Time) (domain.Card, error) {
	if card.Maturity == domain.MaturityRetired {
		return card, ErrRetired
	}
	if card.IsActive {
		return card, ErrAlreadyActive
	}
	card.IsActive = true
	card.ActivationStatus = domain.StatusActive
	card.Due = now
	card.Maturity = domain.MaturityNew
	return card, nil
}

// Deactivate banks a card. Maturity is untouched: a banked card
// remembers its progress.
func Deactivate(card domain.Card) domain.Card {
	card.IsActive = false
	card.ActivationStatus = domain.StatusBanked
	return card
}

// Retire moves a card to the retired terminal tier. Valid from any
// state and idempotent: retiring a retired card keeps the original
// retirement timestamp.
func Retire(card domain.Card, now time.Time) domain.Card {
	card.IsActive = false
	card.ActivationStatus = domain.StatusBanked
	card.Maturity = domain.MaturityRetired
	if card.RetiredAt == nil {
		retired := now
		card.RetiredAt = &retired
	}
	return card
}

// Resurrect returns a retired card to the queue at the reviewing tier
// with a seven-day interval. This is the only transition that seeds
// scheduler fields directly instead of deriving them: the card comes
// back partially warmed up rather than as a new card.
func Resurrect(card domain.Card, now time.Time) (domain.Card, error) {
	if card.Maturity != domain.MaturityRetired {
		return card, ErrNotRetired
	}
	card.IsActive = true
	card.ActivationStatus = domain.StatusActive
	card.Maturity = domain.MaturityReviewing
	card.Due = now.AddDate(0, 0, ResurrectIntervalDays)
	card.ScheduledDays = ResurrectIntervalDays
	card.State = int(fsrs.StateReview)
	card.RetiredAt = nil
	card.SuspendReason = ""
	card.SuspendedAt = nil
	card.ResurrectCount++
	return card, nil
}
