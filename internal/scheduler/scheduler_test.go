package scheduler

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
)

var reviewTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func freshState() domain.State {
	return domain.State{
		Interval:   domain.DefaultInterval,
		EaseFactor: domain.DefaultEaseFactor,
		NextReview: reviewTime,
	}
}

func TestNextAgain(t *testing.T) {
	params := DefaultParams()

	for _, interval := range []int{1, 2, 16, 512} {
		state := freshState()
		state.Interval = interval

		next, err := params.Next(state, domain.ReviewOutcomeAgain, reviewTime)
		if err != nil {
			t.Fatalf("Next() returned an unexpected error: %v", err)
		}
		if want := reviewTime.Add(10 * time.Minute); !next.NextReview.Equal(want) {
			t.Errorf("Expected next review %v, got %v", want, next.NextReview)
		}
		if next.Interval != interval {
			t.Errorf("Expected interval to stay %d, got %d", interval, next.Interval)
		}
		if next.EaseFactor != state.EaseFactor {
			t.Errorf("Expected ease factor to stay %g, got %g", state.EaseFactor, next.EaseFactor)
		}
	}
}

func TestNextGood(t *testing.T) {
	testCases := []struct {
		name         string
		policy       Policy
		wantDays     []int // gap after each successive good review
		wantInterval []int // stored interval after each review
	}{
		{
			name:         "compute then double",
			policy:       ComputeThenDouble,
			wantDays:     []int{2, 4, 8, 16},
			wantInterval: []int{2, 4, 8, 16},
		},
		{
			name:         "double then compute",
			policy:       DoubleThenCompute,
			wantDays:     []int{4, 8, 16, 32},
			wantInterval: []int{2, 4, 8, 16},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParams()
			params.Policy = tc.policy
			state := freshState()

			for i := range tc.wantDays {
				next, err := params.Next(state, domain.ReviewOutcomeGood, reviewTime)
				if err != nil {
					t.Fatalf("Next() returned an unexpected error: %v", err)
				}
				if want := reviewTime.AddDate(0, 0, tc.wantDays[i]); !next.NextReview.Equal(want) {
					t.Errorf("Review %d: expected next review %v, got %v", i+1, want, next.NextReview)
				}
				if next.Interval != tc.wantInterval[i] {
					t.Errorf("Review %d: expected interval %d, got %d", i+1, tc.wantInterval[i], next.Interval)
				}
				if next.EaseFactor != domain.DefaultEaseFactor {
					t.Errorf("Review %d: ease factor changed to %g", i+1, next.EaseFactor)
				}
				state = next
			}
		})
	}
}

func TestNextGoodIsStrictlyIncreasing(t *testing.T) {
	params := DefaultParams()
	state := freshState()
	var last time.Time

	for i := 0; i < 10; i++ {
		next, err := params.Next(state, domain.ReviewOutcomeGood, reviewTime)
		if err != nil {
			t.Fatalf("Next() returned an unexpected error: %v", err)
		}
		if !next.NextReview.After(last) {
			t.Fatalf("Review %d: next review %v did not increase past %v", i+1, next.NextReview, last)
		}
		last = next.NextReview
		state = next
	}
}

func TestNextCapsInterval(t *testing.T) {
	params := DefaultParams()
	params.MaxInterval = 10
	state := freshState()
	state.Interval = 8

	next, err := params.Next(state, domain.ReviewOutcomeGood, reviewTime)
	if err != nil {
		t.Fatalf("Next() returned an unexpected error: %v", err)
	}
	if next.Interval != 10 {
		t.Errorf("Expected interval capped at 10, got %d", next.Interval)
	}
	if want := reviewTime.AddDate(0, 0, 16); !next.NextReview.Equal(want) {
		t.Errorf("Expected next review %v, got %v", want, next.NextReview)
	}

	again, err := params.Next(next, domain.ReviewOutcomeGood, reviewTime)
	if err != nil {
		t.Fatalf("Next() returned an unexpected error: %v", err)
	}
	if again.Interval != 10 {
		t.Errorf("Expected interval to stay capped, got %d", again.Interval)
	}
}

func TestGrowOddCap(t *testing.T) {
	params := DefaultParams()
	params.MaxInterval = 3

	testCases := []struct {
		interval int
		want     int
	}{
		{interval: 1, want: 2},
		{interval: 2, want: 3},
		{interval: 3, want: 3},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("interval %d", tc.interval), func(t *testing.T) {
			if got := params.grow(tc.interval); got != tc.want {
				t.Errorf("grow(%d) = %d, want %d", tc.interval, got, tc.want)
			}
		})
	}
}

func TestNextClampsOversizedInterval(t *testing.T) {
	for _, policy := range []Policy{ComputeThenDouble, DoubleThenCompute} {
		for _, interval := range []int{math.MaxInt, math.MaxInt / 2, MaxIntervalLimit + 1} {
			t.Run(fmt.Sprintf("%s/%d", policy, interval), func(t *testing.T) {
				params := DefaultParams()
				params.Policy = policy
				state := freshState()
				state.Interval = interval

				next, err := params.Next(state, domain.ReviewOutcomeGood, reviewTime)
				if err != nil {
					t.Fatalf("Next() returned an unexpected error: %v", err)
				}
				if next.Interval != params.MaxInterval {
					t.Errorf("Expected interval clamped to %d, got %d", params.MaxInterval, next.Interval)
				}
				want := reviewTime.AddDate(0, 0, 2*params.MaxInterval)
				if !next.NextReview.Equal(want) {
					t.Errorf("Expected next review %v, got %v", want, next.NextReview)
				}
				if !next.NextReview.After(reviewTime) {
					t.Errorf("Good must schedule after the review time, got %v", next.NextReview)
				}
			})
		}
	}
}

func TestNextErrors(t *testing.T) {
	params := DefaultParams()

	unvalidated := &Params{}
	if _, err := unvalidated.Next(freshState(), domain.ReviewOutcomeGood, reviewTime); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams for zero params, got %v", err)
	}

	if _, err := params.Next(freshState(), domain.ReviewOutcome("easy"), reviewTime); !errors.Is(err, ErrInvalidOutcome) {
		t.Errorf("Expected ErrInvalidOutcome, got %v", err)
	}

	bad := freshState()
	bad.Interval = 0
	if _, err := params.Next(bad, domain.ReviewOutcomeGood, reviewTime); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState for zero interval, got %v", err)
	}

	bad = freshState()
	bad.EaseFactor = 0
	if _, err := params.Next(bad, domain.ReviewOutcomeAgain, reviewTime); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState for zero ease, got %v", err)
	}
}

func TestNextIsPure(t *testing.T) {
	params := DefaultParams()
	state := freshState()

	a, _ := params.Next(state, domain.ReviewOutcomeGood, reviewTime)
	b, _ := params.Next(state, domain.ReviewOutcomeGood, reviewTime)
	if a != b {
		t.Errorf("Expected identical results for identical input, got %+v and %+v", a, b)
	}
	if state != freshState() {
		t.Error("Next() modified its input")
	}
}

func TestReview(t *testing.T) {
	params := DefaultParams()
	card := domain.NewCard("7", "Hello", "Merhaba", "a.mp3", "", reviewTime)

	updated, err := params.Review(card, domain.ReviewOutcomeGood, reviewTime)
	if err != nil {
		t.Fatalf("Review() returned an unexpected error: %v", err)
	}
	if updated.Front != card.Front || updated.AudioRef != card.AudioRef {
		t.Errorf("Review() changed card content: %+v", updated)
	}
	if updated.Interval != 2 {
		t.Errorf("Expected interval 2, got %d", updated.Interval)
	}
	if card.Interval != 1 {
		t.Error("Review() modified the input card")
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Errorf("Expected default params to be valid, got %v", err)
	}

	testCases := []struct {
		name   string
		modify func(*Params)
	}{
		{"zero again delay", func(p *Params) { p.AgainDelay = 0 }},
		{"again delay below ten minutes", func(p *Params) { p.AgainDelay = 5 * time.Minute }},
		{"max interval above limit", func(p *Params) { p.MaxInterval = MaxIntervalLimit + 1 }},
		{"unknown policy", func(p *Params) { p.Policy = "sometimes" }},
		{"zero max interval", func(p *Params) { p.MaxInterval = 0 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParams()
			tc.modify(p)
			if err := p.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("double-then-compute"); err != nil || p != DoubleThenCompute {
		t.Errorf("Unexpected result %q, %v", p, err)
	}
	if _, err := ParsePolicy("triple"); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("Expected ErrInvalidPolicy, got %v", err)
	}
}
