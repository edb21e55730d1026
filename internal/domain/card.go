package domain

import "time"

// CardType identifies how a card was authored or generated.
type CardType string

const (
	TypeStandard  CardType = "standard"
	TypeCloze     CardType = "cloze"
	TypeListCloze CardType = "list-cloze"
	TypeVignette  CardType = "vignette"
)

// ActivationStatus describes a card's queue visibility.
// A "banked" card exists but has not been surfaced yet; a "suspended"
// card was pulled from the queue (leech) with its history kept.
type ActivationStatus string

const (
	StatusActive    ActivationStatus = "active"
	StatusBanked    ActivationStatus = "banked"
	StatusSuspended ActivationStatus = "suspended"
)

// SuspendReasonLeech marks cards auto-suspended by the leech detector.
const SuspendReasonLeech = "leech"

// Card is a single reviewable unit in the practice bank.
//
// Scheduler fields (Stability through LastReview) are mutated only by the
// review orchestrator or the explicit lifecycle actions. ListPosition
// records the card's origin index in its source list; it is used for
// list-health aggregation and never for shuffling or scheduling.
type Card struct {
	ID    string
	Front string
	Back  string
	Type  CardType

	// List linkage. ParentListID is empty for standalone cards.
	ParentListID string
	ListPosition int

	// Structured cloze data. TargetItem is the answer; ContextItems are
	// the sibling items shown as distractor context, kept in canonical
	// (lexicographic) order. Empty for non-cloze cards.
	TargetItem   string
	ContextItems []string

	// ContentHash identifies the card across sync runs.
	ContentHash string
	SourceID    int64

	// Scheduler state. State holds the fsrs.State code:
	// 0 New, 1 Learning, 2 Review, 3 Relearning.
	Stability     float64
	Difficulty    float64
	ElapsedDays   float64
	ScheduledDays float64
	Reps          int
	Lapses        int
	State         int
	Due           time.Time
	LastReview    *time.Time

	// Tiered lifecycle.
	IsActive       bool
	IsGoldenTicket bool
	Maturity       MaturityState
	RetiredAt      *time.Time
	ResurrectCount int

	ActivationStatus ActivationStatus
	SuspendReason    string
	SuspendedAt      *time.Time
}

// ReviewLog records a single review submission. Rows are append-only:
// they feed analytics and are never read back to re-derive card state.
type ReviewLog struct {
	ID     string
	CardID string
	Rating int

	// Scheduler snapshot after the review was applied.
	Stability     float64
	Difficulty    float64
	State         int
	ScheduledDays float64
	Due           time.Time

	ReviewedAt    time.Time
	ResponseMs    *int
	PartialCredit *float64
}
