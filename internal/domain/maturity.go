package domain

import "fmt"

// MaturityState is a card's tier in the review pipeline. It is derived
// from scheduler output on every review (never incremented in place),
// except for the explicit retire/resurrect lifecycle actions.
type MaturityState string

const (
	MaturityNew       MaturityState = "new"
	MaturityLearning  MaturityState = "learning"
	MaturityReviewing MaturityState = "reviewing"
	MaturityMature    MaturityState = "mature"
	MaturityRetired   MaturityState = "retired"
)

// IsValid reports whether m is one of the five known tiers.
func (m MaturityState) IsValid() bool {
	switch m {
	case MaturityNew, MaturityLearning, MaturityReviewing, MaturityMature, MaturityRetired:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MaturityState) UnmarshalText(text []byte) error {
	v := MaturityState(text)
	if !v.IsValid() {
		return fmt.Errorf("domain: invalid maturity state: %q", text)
	}
	*m = v
	return nil
}
