package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultInterval is the spacing, in days, of a card that has never been reviewed.
	DefaultInterval = 1
	// DefaultEaseFactor is the growth multiplier assigned to freshly imported cards.
	DefaultEaseFactor = 2.5
)

var (
	ErrInvalidState         = errors.New("invalid scheduling state")
	ErrInvalidReviewOutcome = errors.New("invalid review outcome")
	ErrDuplicateCard        = errors.New("duplicate card id")
)

// Card is a single prompt/answer pair imported from a deck, together with its
// scheduling state.
type Card struct {
	ID         string
	Front      string
	Back       string
	AudioRef   string // media file name from a [sound:...] marker, empty when absent
	Tags       string
	Interval   int
	EaseFactor float64
	NextReview time.Time
}

// NewCard returns a card in its pre-scheduling state, due at now.
func NewCard(id, front, back, audioRef, tags string, now time.Time) Card {
	return Card{
		ID:         id,
		Front:      front,
		Back:       back,
		AudioRef:   audioRef,
		Tags:       tags,
		Interval:   DefaultInterval,
		EaseFactor: DefaultEaseFactor,
		NextReview: now,
	}
}

// HasAudio reports whether the card front referenced a media file.
func (c Card) HasAudio() bool {
	return c.AudioRef != ""
}

// TagList splits the space-delimited tag string.
func (c Card) TagList() []string {
	return strings.Fields(c.Tags)
}

// State returns the card's scheduling snapshot.
func (c Card) State() State {
	return State{
		Interval:   c.Interval,
		EaseFactor: c.EaseFactor,
		NextReview: c.NextReview,
	}
}

// WithState returns a copy of the card carrying the given scheduling state.
func (c Card) WithState(s State) Card {
	c.Interval = s.Interval
	c.EaseFactor = s.EaseFactor
	c.NextReview = s.NextReview
	return c
}

// State is the persisted scheduling snapshot of one card.
type State struct {
	Interval   int       `json:"interval"`
	EaseFactor float64   `json:"ease_factor"`
	NextReview time.Time `json:"next_review"`
}

// Validate checks the scheduling invariants.
func (s State) Validate() error {
	if s.Interval < 1 {
		return fmt.Errorf("%w: interval %d is below 1", ErrInvalidState, s.Interval)
	}
	if s.EaseFactor <= 0 {
		return fmt.Errorf("%w: ease factor %g is not positive", ErrInvalidState, s.EaseFactor)
	}
	if s.NextReview.IsZero() {
		return fmt.Errorf("%w: next review is unset", ErrInvalidState)
	}
	return nil
}

// ReviewOutcome is the reviewer's judgment of a recall attempt.
type ReviewOutcome string

const (
	ReviewOutcomeAgain ReviewOutcome = "again"
	ReviewOutcomeGood  ReviewOutcome = "good"
)

// Valid reports whether o is one of the known outcomes.
func (o ReviewOutcome) Valid() bool {
	return o == ReviewOutcomeAgain || o == ReviewOutcomeGood
}

// ParseReviewOutcome maps user input to an outcome, ignoring case and surrounding space.
func ParseReviewOutcome(s string) (ReviewOutcome, error) {
	o := ReviewOutcome(strings.ToLower(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidReviewOutcome, s)
	}
	return o, nil
}
