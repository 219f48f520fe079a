package scheduler

import (
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
)

// IsDue reports whether the card may be presented at now.
func IsDue(card domain.Card, now time.Time) bool {
	return !card.NextReview.After(now)
}

// NextDue returns the first card, in the given order, whose next review is at
// or before now. ErrNoCardsDue is returned when every card is due later.
func NextDue(cards []domain.Card, now time.Time) (domain.Card, error) {
	for _, c := range cards {
		if IsDue(c, now) {
			return c, nil
		}
	}
	return domain.Card{}, ErrNoCardsDue
}

// DueCount returns the number of cards due at now.
func DueCount(cards []domain.Card, now time.Time) int {
	n := 0
	for _, c := range cards {
		if IsDue(c, now) {
			n++
		}
	}
	return n
}
