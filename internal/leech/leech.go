// Package leech flags cards whose content is not sticking.
//
// A card that keeps lapsing wastes review time without building recall;
// past a fixed lapse count it is worth rewriting instead of re-drilling.
package leech

// Threshold is the lapse count at which a card becomes a leech. Lower
// than the common default of 8: a time-constrained learner should cut
// losses on bad phrasing earlier.
const Threshold = 6

// Actions suggested by Check.
const (
	ActionRewrite  = "rewrite"
	ActionContinue = "continue"
)

// CheckResult is the outcome of a leech evaluation.
type CheckResult struct {
	IsLeech         bool
	SuggestedAction string
}

// Check evaluates a card's accumulated lapse count.
func Check(lapseCount int) CheckResult {
	if lapseCount >= Threshold {
		return CheckResult{IsLeech: true, SuggestedAction: ActionRewrite}
	}
	return CheckResult{SuggestedAction: ActionContinue}
}

// SuspendDecision is the outcome of ShouldAutoSuspend.
type SuspendDecision struct {
	Suspend bool
	Reason  string
}

// ShouldAutoSuspend decides whether a review that may have just lapsed
// pushes the card over the leech threshold. currentLapses is the count
// before the review is applied. The orchestrator calls this on every
// submission, so a leech is never suspended later than the review that
// created it.
func ShouldAutoSuspend(currentLapses int, wasJustALapse bool) SuspendDecision {
	total := currentLapses
	if wasJustALapse {
		total++
	}
	if total >= Threshold {
		return SuspendDecision{Suspend: true, Reason: "leech"}
	}
	return SuspendDecision{}
}
