package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewCard(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	card := NewCard("1", "Hello", "Merhaba", "a.mp3", "greet basics", now)

	if card.Interval != 1 || card.EaseFactor != 2.5 {
		t.Errorf("Expected interval 1 and ease 2.5, got %d and %g", card.Interval, card.EaseFactor)
	}
	if !card.NextReview.Equal(now) {
		t.Errorf("Expected next review %v, got %v", now, card.NextReview)
	}
	if !card.HasAudio() {
		t.Error("Expected card to have audio")
	}
	if tags := card.TagList(); len(tags) != 2 || tags[0] != "greet" || tags[1] != "basics" {
		t.Errorf("Unexpected tag list %v", tags)
	}
	if err := card.State().Validate(); err != nil {
		t.Errorf("Expected fresh card state to be valid, got %v", err)
	}
}

func TestStateValidate(t *testing.T) {
	now := time.Now()
	testCases := []struct {
		name  string
		state State
		valid bool
	}{
		{"valid", State{Interval: 4, EaseFactor: 2.5, NextReview: now}, true},
		{"zero interval", State{Interval: 0, EaseFactor: 2.5, NextReview: now}, false},
		{"negative ease", State{Interval: 1, EaseFactor: -1, NextReview: now}, false},
		{"zero ease", State{Interval: 1, EaseFactor: 0, NextReview: now}, false},
		{"unset next review", State{Interval: 1, EaseFactor: 2.5}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.state.Validate()
			if tc.valid && err != nil {
				t.Errorf("Expected valid state, got %v", err)
			}
			if !tc.valid && !errors.Is(err, ErrInvalidState) {
				t.Errorf("Expected ErrInvalidState, got %v", err)
			}
		})
	}
}

func TestParseReviewOutcome(t *testing.T) {
	for _, in := range []string{"again", " Again ", "GOOD", "good"} {
		if _, err := ParseReviewOutcome(in); err != nil {
			t.Errorf("ParseReviewOutcome(%q) returned error: %v", in, err)
		}
	}
	for _, in := range []string{"", "hard", "easy", "0"} {
		if _, err := ParseReviewOutcome(in); !errors.Is(err, ErrInvalidReviewOutcome) {
			t.Errorf("ParseReviewOutcome(%q) expected ErrInvalidReviewOutcome, got %v", in, err)
		}
	}
}

func TestDeck(t *testing.T) {
	now := time.Now()
	deck := NewDeck("turkish")
	ids := []string{"1700000000002", "1700000000001", "1700000000003"}
	for _, id := range ids {
		if err := deck.Add(NewCard(id, "f"+id, "b"+id, "", "", now)); err != nil {
			t.Fatalf("Add(%s) returned error: %v", id, err)
		}
	}

	t.Run("preserves insertion order", func(t *testing.T) {
		cards := deck.Cards()
		for i, id := range ids {
			if cards[i].ID != id {
				t.Errorf("Expected card %d to be %s, got %s", i, id, cards[i].ID)
			}
		}
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		err := deck.Add(NewCard(ids[0], "x", "y", "", "", now))
		if !errors.Is(err, ErrDuplicateCard) {
			t.Errorf("Expected ErrDuplicateCard, got %v", err)
		}
		if deck.Len() != len(ids) {
			t.Errorf("Expected %d cards after rejected add, got %d", len(ids), deck.Len())
		}
	})

	t.Run("applies progress by id", func(t *testing.T) {
		later := now.Add(48 * time.Hour)
		p := UserProgress{
			ids[1]:    {Interval: 2, EaseFactor: 2.5, NextReview: later},
			"missing": {Interval: 8, EaseFactor: 2.5, NextReview: later},
		}
		if applied := deck.ApplyProgress(p); applied != 1 {
			t.Errorf("Expected 1 card updated, got %d", applied)
		}
		card, _ := deck.Card(ids[1])
		if card.Interval != 2 || !card.NextReview.Equal(later) {
			t.Errorf("Progress was not applied: %+v", card)
		}
		untouched, _ := deck.Card(ids[0])
		if untouched.Interval != DefaultInterval {
			t.Errorf("Expected untouched card to keep default interval, got %d", untouched.Interval)
		}
	})

	t.Run("cards copy is detached", func(t *testing.T) {
		cards := deck.Cards()
		cards[0].Front = "changed"
		card, _ := deck.Card(ids[0])
		if card.Front == "changed" {
			t.Error("Mutating Cards() result changed the deck")
		}
	})
}

func TestDeckMediaKey(t *testing.T) {
	deck := NewDeck("d")
	deck.Media = map[string]string{"0": "a.mp3", "1": "b.mp3"}
	if key, ok := deck.MediaKey("b.mp3"); !ok || key != "1" {
		t.Errorf("Expected key 1 for b.mp3, got %q (%v)", key, ok)
	}
	if _, ok := deck.MediaKey("c.mp3"); ok {
		t.Error("Expected no key for unknown file")
	}
}

func TestUserProgress(t *testing.T) {
	now := time.Now()
	p := UserProgress{}
	card := NewCard("42", "f", "b", "", "", now)
	p.Record(card)

	clone := p.Clone()
	clone["42"] = State{Interval: 16, EaseFactor: 2.5, NextReview: now}

	s, ok := p.Lookup("42")
	if !ok || s.Interval != DefaultInterval {
		t.Errorf("Clone mutation leaked into original: %+v", s)
	}
}
