// Package review is the review-submission entry point. It feeds the
// scheduling formula's output into the maturity derivation and the
// leech check, and returns one consistent state delta plus an immutable
// review-log record for the caller to persist atomically.
package review

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/conorfennell/practicebank/internal/domain"
	"github.com/conorfennell/practicebank/internal/fsrs"
	"github.com/conorfennell/practicebank/internal/leech"
	"github.com/conorfennell/practicebank/internal/maturity"
)

// Metadata carries optional per-review measurements into the log.
type Metadata struct {
	ResponseMs    *int
	PartialCredit *float64
}

// Result is the full outcome of one review submission. Card and Log
// must be persisted together or not at all.
type Result struct {
	Card      domain.Card
	Log       domain.ReviewLog
	Intervals fsrs.Intervals // candidate intervals for UI preview
	Suspended bool           // true when the leech check fired
}

// Orchestrator coordinates one review submission at a time. It holds no
// mutable state; concurrent submissions for different cards need no
// coordination, and the UI guarantees a single active session per card.
type Orchestrator struct {
	params *fsrs.Params
}

// New returns an Orchestrator using the given scheduling parameters,
// or the defaults when params is nil.
func New(params *fsrs.Params) *Orchestrator {
	if params == nil {
		params = fsrs.DefaultParams()
	}
	return &Orchestrator{params: params}
}

// SubmitReview applies one rating to the card at the given time.
//
// The scheduler computes the new memory state and the four candidate
// intervals; only the chosen rating's interval is applied. Maturity is
// re-derived from scratch. The leech check runs synchronously with the
// pre-review lapse count, and when it fires the suspension overrides
// whatever activation the scheduler path implied: a leech leaves the
// queue on the very review that created it, history intact.
func (o *Orchestrator) SubmitReview(card domain.Card, rating fsrs.Rating, now time.Time, meta Metadata) (Result, error) {
	prior := fsrs.CardState{
		Stability:     card.Stability,
		Difficulty:    card.Difficulty,
		ElapsedDays:   card.ElapsedDays,
		ScheduledDays: card.ScheduledDays,
		Reps:          card.Reps,
		Lapses:        card.Lapses,
		State:         fsrs.State(card.State),
		Due:           card.Due,
		LastReview:    card.LastReview,
	}

	res, err := o.params.ComputeNextState(prior, rating, now)
	if err != nil {
		return Result{}, err
	}

	wasJustALapse := res.State.Lapses > card.Lapses

	next := res.State
	card.Stability = next.Stability
	card.Difficulty = next.Difficulty
	card.ElapsedDays = next.ElapsedDays
	card.ScheduledDays = next.ScheduledDays
	card.Reps = next.Reps
	card.Lapses = next.Lapses
	card.State = int(next.State)
	card.Due = next.Due
	card.LastReview = next.LastReview

	card.Maturity = maturity.Derive(next.State, next.ScheduledDays)

	decision := leech.ShouldAutoSuspend(prior.Lapses, wasJustALapse)
	if decision.Suspend {
		card.IsActive = false
		card.ActivationStatus = domain.StatusSuspended
		card.SuspendReason = decision.Reason
		suspended := now
		card.SuspendedAt = &suspended
	}

	log := domain.ReviewLog{
		ID:            ulid.Make().String(),
		CardID:        card.ID,
		Rating:        int(rating),
		Stability:     next.Stability,
		Difficulty:    next.Difficulty,
		State:         int(next.State),
		ScheduledDays: next.ScheduledDays,
		Due:           next.Due,
		ReviewedAt:    now,
		ResponseMs:    meta.ResponseMs,
		PartialCredit: meta.PartialCredit,
	}

	return Result{
		Card:      card,
		Log:       log,
		Intervals: res.Intervals,
		Suspended: decision.Suspend,
	}, nil
}
