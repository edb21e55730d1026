// Package fsrs computes the next scheduling state for a reviewed card.
//
// The rest of the system treats this package as a black box: it takes
// the current memory state and a rating and returns the new state plus
// the candidate intervals for all four ratings. Maturity tiers, leech
// handling, and persistence live elsewhere.
package fsrs

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Rating is the user's response to a card review.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

var ratingNames = map[Rating]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

// IsValid reports whether r is a known rating.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// String returns the rating name, or "Rating(n)" for invalid values.
func (r Rating) String() string {
	if name, ok := ratingNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// State is the discrete scheduler state of a card.
type State int

const (
	StateNew        State = 0
	StateLearning   State = 1
	StateReview     State = 2
	StateRelearning State = 3
)

var stateNames = map[State]string{
	StateNew:        "New",
	StateLearning:   "Learning",
	StateReview:     "Review",
	StateRelearning: "Relearning",
}

// IsValid reports whether s is a known state code.
func (s State) IsValid() bool {
	return s >= StateNew && s <= StateRelearning
}

// String returns the state name, or "State(n)" for invalid values.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrInvalidRating is returned for ratings outside 1..4.
var ErrInvalidRating = errors.New("fsrs: invalid rating")

// Params holds the parameters for the scheduling formula.
// These are placeholder values pending optimization against review logs.
type Params struct {
	A                float64 // scales the overall memory increase
	B                float64 // difficulty exponent
	C                float64 // stability exponent
	D                float64 // retention effect scaler
	DesiredRetention float64 // desired retention rate (e.g. 0.9 for 90%)
	MaximumInterval  float64 // cap on scheduled days
}

// DefaultParams provides a set of sensible default parameters.
func DefaultParams() *Params {
	return &Params{
		A:                0.2,
		B:                0.5,
		C:                0.1,
		D:                4.0,
		DesiredRetention: 0.9,
		MaximumInterval:  36500,
	}
}

// CardState is the scheduler's view of a card's memory state.
type CardState struct {
	Stability     float64
	Difficulty    float64
	ElapsedDays   float64
	ScheduledDays float64
	Reps          int
	Lapses        int
	State         State
	Due           time.Time
	LastReview    *time.Time
}

// Intervals holds the candidate next interval in days for each rating.
// The caller applies only the interval matching the chosen rating; the
// others exist so the UI can preview outcomes on the answer buttons.
type Intervals struct {
	Again float64
	Hard  float64
	Good  float64
	Easy  float64
}

// Result is the output of ComputeNextState.
type Result struct {
	State     CardState
	Intervals Intervals
}

// ComputeNextState applies one review to the card's memory state.
// The input state is not mutated.
func (p *Params) ComputeNextState(current CardState, rating Rating, now time.Time) (Result, error) {
	if !rating.IsValid() {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	next := p.step(current, rating, now)

	return Result{
		State: next,
		Intervals: Intervals{
			Again: p.step(current, Again, now).ScheduledDays,
			Hard:  p.step(current, Hard, now).ScheduledDays,
			Good:  p.step(current, Good, now).ScheduledDays,
			Easy:  p.step(current, Easy, now).ScheduledDays,
		},
	}, nil
}

// step computes the post-review state for a single rating.
func (p *Params) step(current CardState, rating Rating, now time.Time) CardState {
	next := current
	next.Reps = current.Reps + 1

	if current.LastReview != nil {
		next.ElapsedDays = now.Sub(*current.LastReview).Hours() / 24.0
	} else {
		next.ElapsedDays = 0
	}

	if current.Reps == 0 {
		next.Stability = initialStability(rating)
		next.Difficulty = initialDifficulty(rating)
	} else if rating == Again {
		// Forgetting resets stability; difficulty creeps up, capped.
		next.Stability = 1
		next.Difficulty = math.Min(10, current.Difficulty+0.5)
	} else {
		next.Stability = p.nextStability(current.Stability, current.Difficulty)
		if rating == Easy {
			next.Stability *= 1.3
		}
		next.Difficulty = current.Difficulty
		if rating == Hard {
			next.Difficulty = math.Min(10, next.Difficulty+0.1)
		}
	}

	next.State = transition(current.State, rating)
	if rating == Again && current.State == StateReview {
		next.Lapses = current.Lapses + 1
	}

	if next.State == StateReview {
		next.ScheduledDays = p.intervalDays(next.Stability)
	} else {
		// Learning and relearning reviews come back the same day.
		next.ScheduledDays = 0
	}
	next.Due = now.Add(time.Duration(next.ScheduledDays * 24 * float64(time.Hour)))
	reviewed := now
	next.LastReview = &reviewed

	return next
}

// transition is the discrete state machine: failures drop Review cards
// into Relearning, successes graduate learning cards on Good or Easy.
func transition(state State, rating Rating) State {
	switch state {
	case StateNew:
		if rating >= Good {
			return StateReview
		}
		return StateLearning
	case StateLearning, StateRelearning:
		if rating >= Good {
			return StateReview
		}
		return state
	default: // StateReview
		if rating == Again {
			return StateRelearning
		}
		return StateReview
	}
}

func initialStability(rating Rating) float64 {
	switch rating {
	case Again:
		return 1
	case Hard:
		return 1.5
	case Good:
		return 3
	default:
		return 6
	}
}

// initialDifficulty maps easier first impressions to lower difficulty.
func initialDifficulty(rating Rating) float64 {
	return math.Min(10, math.Max(1, 7-float64(rating)))
}

// nextStability applies the core formula for a successful review:
// S' = S * (1 + a * D^(-b) * S^c * (e^(d * (1-R)) - 1))
func (p *Params) nextStability(stability, difficulty float64) float64 {
	if stability < 1 {
		stability = 1
	}
	if difficulty < 1 {
		difficulty = 1
	}

	factor := p.A * math.Pow(difficulty, -p.B) * math.Pow(stability, p.C)
	exponent := p.D * (1 - p.DesiredRetention)
	multiplier := math.Exp(exponent) - 1

	return stability * (1 + factor*multiplier)
}

// intervalDays converts stability to a whole-day interval, at least one
// day and no more than the configured maximum.
func (p *Params) intervalDays(stability float64) float64 {
	days := math.Round(stability)
	if days < 1 {
		days = 1
	}
	if p.MaximumInterval > 0 && days > p.MaximumInterval {
		days = p.MaximumInterval
	}
	return days
}
