package review

import (
	"errors"
	"testing"
	"time"

	"github.com/conorfennell/practicebank/internal/domain"
	"github.com/conorfennell/practicebank/internal/fsrs"
)

func activeReviewCard() domain.Card {
	last := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return domain.Card{
		ID:               "card-1",
		Front:            "Q",
		Back:             "A",
		Type:             domain.TypeStandard,
		Stability:        12,
		Difficulty:       5,
		ScheduledDays:    12,
		Reps:             6,
		Lapses:           2,
		State:            int(fsrs.StateReview),
		LastReview:       &last,
		IsActive:         true,
		ActivationStatus: domain.StatusActive,
		Maturity:         domain.MaturityReviewing,
	}
}

func TestSubmitReviewGood(t *testing.T) {
	o := New(nil)
	now := time.Date(2026, 5, 13, 9, 0, 0, 0, time.UTC)

	res, err := o.SubmitReview(activeReviewCard(), fsrs.Good, now, Metadata{})
	if err != nil {
		t.Fatalf("SubmitReview returned error: %v", err)
	}

	if res.Card.Reps != 7 {
		t.Errorf("reps = %d, want 7", res.Card.Reps)
	}
	if res.Card.Lapses != 2 {
		t.Errorf("lapses = %d, want unchanged 2", res.Card.Lapses)
	}
	if !res.Card.IsActive {
		t.Error("a good review must not deactivate the card")
	}
	if res.Card.Maturity != domain.MaturityReviewing {
		t.Errorf("maturity = %q, want reviewing", res.Card.Maturity)
	}
	if res.Suspended {
		t.Error("leech check fired on a healthy card")
	}

	if res.Log.CardID != "card-1" || res.Log.Rating != int(fsrs.Good) {
		t.Errorf("log mismatch: %+v", res.Log)
	}
	if res.Log.ID == "" {
		t.Error("log id is empty")
	}
	if !res.Log.ReviewedAt.Equal(now) {
		t.Errorf("log timestamp = %v, want %v", res.Log.ReviewedAt, now)
	}
	if res.Log.Stability != res.Card.Stability || res.Log.State != res.Card.State {
		t.Errorf("log snapshot diverges from card: log=%+v card stability=%.2f", res.Log, res.Card.Stability)
	}
}

func TestSubmitReviewLeechSuspension(t *testing.T) {
	o := New(nil)
	now := time.Date(2026, 5, 13, 9, 0, 0, 0, time.UTC)

	card := activeReviewCard()
	card.Lapses = 5

	res, err := o.SubmitReview(card, fsrs.Again, now, Metadata{})
	if err != nil {
		t.Fatalf("SubmitReview returned error: %v", err)
	}

	if !res.Suspended {
		t.Fatal("sixth lapse did not trigger suspension")
	}
	if res.Card.IsActive {
		t.Error("suspended card is still active")
	}
	if res.Card.ActivationStatus != domain.StatusSuspended {
		t.Errorf("activation status = %q, want suspended", res.Card.ActivationStatus)
	}
	if res.Card.SuspendReason != domain.SuspendReasonLeech {
		t.Errorf("suspend reason = %q, want leech", res.Card.SuspendReason)
	}
	if res.Card.SuspendedAt == nil || !res.Card.SuspendedAt.Equal(now) {
		t.Errorf("suspendedAt = %v, want %v", res.Card.SuspendedAt, now)
	}
	if res.Card.Lapses != 6 {
		t.Errorf("lapses = %d, want 6", res.Card.Lapses)
	}
	// History preserved: suspension is not deletion.
	if res.Card.Reps != 7 {
		t.Errorf("reps = %d, want 7", res.Card.Reps)
	}
}

func TestSubmitReviewLapsesMonotonic(t *testing.T) {
	o := New(nil)
	now := time.Date(2026, 5, 13, 9, 0, 0, 0, time.UTC)

	card := activeReviewCard()
	for i := 0; i < 10; i++ {
		before := card.Lapses
		rating := fsrs.Good
		if i%2 == 0 {
			rating = fsrs.Again
		}
		res, err := o.SubmitReview(card, rating, now.AddDate(0, 0, i), Metadata{})
		if err != nil {
			t.Fatalf("review %d: %v", i, err)
		}
		if res.Card.Lapses < before {
			t.Fatalf("review %d: lapses decreased from %d to %d", i, before, res.Card.Lapses)
		}
		card = res.Card
	}
}

func TestSubmitReviewMatureDerivation(t *testing.T) {
	o := New(nil)
	now := time.Date(2026, 5, 13, 9, 0, 0, 0, time.UTC)

	// High stability pushes the good interval past the mature boundary.
	card := activeReviewCard()
	card.Stability = 80
	card.ScheduledDays = 80

	res, err := o.SubmitReview(card, fsrs.Good, now, Metadata{})
	if err != nil {
		t.Fatalf("SubmitReview returned error: %v", err)
	}
	if res.Card.Maturity != domain.MaturityMature {
		t.Errorf("maturity = %q (scheduledDays=%.0f), want mature", res.Card.Maturity, res.Card.ScheduledDays)
	}
}

func TestSubmitReviewMetadataOnLog(t *testing.T) {
	o := New(nil)
	now := time.Now()
	ms := 4200
	credit := 0.5

	res, err := o.SubmitReview(activeReviewCard(), fsrs.Hard, now, Metadata{ResponseMs: &ms, PartialCredit: &credit})
	if err != nil {
		t.Fatalf("SubmitReview returned error: %v", err)
	}
	if res.Log.ResponseMs == nil || *res.Log.ResponseMs != 4200 {
		t.Errorf("responseMs = %v, want 4200", res.Log.ResponseMs)
	}
	if res.Log.PartialCredit == nil || *res.Log.PartialCredit != 0.5 {
		t.Errorf("partialCredit = %v, want 0.5", res.Log.PartialCredit)
	}
}

func TestSubmitReviewInvalidRating(t *testing.T) {
	o := New(nil)
	if _, err := o.SubmitReview(activeReviewCard(), fsrs.Rating(9), time.Now(), Metadata{}); !errors.Is(err, fsrs.ErrInvalidRating) {
		t.Errorf("err = %v, want ErrInvalidRating", err)
	}
}

func TestSubmitReviewPreviewMatchesApplied(t *testing.T) {
	o := New(nil)
	now := time.Now()

	res, err := o.SubmitReview(activeReviewCard(), fsrs.Easy, now, Metadata{})
	if err != nil {
		t.Fatalf("SubmitReview returned error: %v", err)
	}
	if res.Intervals.Easy != res.Card.ScheduledDays {
		t.Errorf("easy preview %.1f != applied interval %.1f", res.Intervals.Easy, res.Card.ScheduledDays)
	}
}
