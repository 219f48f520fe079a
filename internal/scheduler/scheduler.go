// Package scheduler computes when a card is next due after a review.
package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
)

var (
	// ErrInvalidOutcome is returned for an outcome other than again or good.
	ErrInvalidOutcome = errors.New("invalid review outcome")
	// ErrInvalidPolicy is returned for an unknown growth policy name.
	ErrInvalidPolicy = errors.New("invalid scheduling policy")
	// ErrInvalidParams is returned by Params.Validate.
	ErrInvalidParams = errors.New("invalid scheduler parameters")
	// ErrNoCardsDue signals that no card is currently eligible. It is an
	// expected empty result, not a failure.
	ErrNoCardsDue = errors.New("no cards due")
)

// Policy fixes when a successful review grows the stored interval relative to
// computing the due date. The gap after a "good" review is always twice the
// interval in effect at the moment the due date is computed.
type Policy string

const (
	// ComputeThenDouble schedules with the stored interval, then doubles it
	// for the next review. The first success after import waits 2 days.
	ComputeThenDouble Policy = "compute-then-double"
	// DoubleThenCompute doubles the stored interval first and schedules with
	// the grown value. The first success after import waits 4 days.
	DoubleThenCompute Policy = "double-then-compute"
)

const (
	// MinAgainDelay is the shortest relearning delay after a failed recall.
	MinAgainDelay = 10 * time.Minute
	// MaxIntervalLimit bounds MaxInterval so that due dates stay representable.
	MaxIntervalLimit = 36500
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case ComputeThenDouble, DoubleThenCompute:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// Params holds the scheduling parameters.
type Params struct {
	AgainDelay  time.Duration // relearning delay after a failed recall
	Policy      Policy
	MaxInterval int // upper bound on the stored interval, in days
}

// DefaultParams returns the standard parameters.
func DefaultParams() *Params {
	return &Params{
		AgainDelay:  MinAgainDelay,
		Policy:      ComputeThenDouble,
		MaxInterval: MaxIntervalLimit,
	}
}

// Validate checks the parameters for usable values.
func (p *Params) Validate() error {
	if p.AgainDelay < MinAgainDelay {
		return fmt.Errorf("%w: again delay must be at least %s", ErrInvalidParams, MinAgainDelay)
	}
	if _, err := ParsePolicy(string(p.Policy)); err != nil {
		return err
	}
	if p.MaxInterval < 1 || p.MaxInterval > MaxIntervalLimit {
		return fmt.Errorf("%w: max interval must be between 1 and %d", ErrInvalidParams, MaxIntervalLimit)
	}
	return nil
}

// Next returns the scheduling state after a review with the given outcome at
// now. It is a pure function of its arguments; the ease factor is carried
// through unchanged.
func (p *Params) Next(state domain.State, outcome domain.ReviewOutcome, now time.Time) (domain.State, error) {
	if err := p.Validate(); err != nil {
		return domain.State{}, err
	}
	if !outcome.Valid() {
		return domain.State{}, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome)
	}
	if state.Interval < 1 || state.EaseFactor <= 0 {
		return domain.State{}, fmt.Errorf("%w: interval %d, ease factor %g",
			domain.ErrInvalidState, state.Interval, state.EaseFactor)
	}

	next := state
	if outcome == domain.ReviewOutcomeAgain {
		next.NextReview = now.Add(p.AgainDelay)
		return next, nil
	}

	// Stored intervals above the cap are clamped before any arithmetic.
	interval := min(state.Interval, p.MaxInterval)
	switch p.Policy {
	case DoubleThenCompute:
		next.Interval = p.grow(interval)
		next.NextReview = now.AddDate(0, 0, 2*next.Interval)
	default:
		next.NextReview = now.AddDate(0, 0, 2*interval)
		next.Interval = p.grow(interval)
	}
	return next, nil
}

// grow doubles an interval, capped at MaxInterval.
func (p *Params) grow(interval int) int {
	if interval > p.MaxInterval/2 {
		return p.MaxInterval
	}
	return interval * 2
}

// Review applies Next to a card and returns the updated copy.
func (p *Params) Review(card domain.Card, outcome domain.ReviewOutcome, now time.Time) (domain.Card, error) {
	next, err := p.Next(card.State(), outcome, now)
	if err != nil {
		return domain.Card{}, fmt.Errorf("card %s: %w", card.ID, err)
	}
	return card.WithState(next), nil
}
