// Package session holds the state of one reviewer's session: the imported
// decks, their progress and the day's review counters. Every user action is a
// method call that returns the new state; nothing is persisted here.
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/knoldeck/internal/apkg"
	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/scheduler"
)

var (
	ErrUnknownDeck = errors.New("unknown deck")
	ErrUnknownCard = errors.New("unknown card")
)

var validate = validator.New()

// DailyStats counts the reviews of one calendar day. Caps on these counters
// are the caller's policy.
type DailyStats struct {
	Day      time.Time
	Reviewed int
	New      int
}

// Session is the explicit context threaded through import and review calls.
type Session struct {
	ID       string
	Username string

	decks    map[string]*domain.Deck
	order    []string
	progress domain.UserProgress
	stats    DailyStats

	params   *scheduler.Params
	importer *apkg.Importer
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Session.
type Option func(*Session)

// WithParams sets the scheduler parameters.
func WithParams(p *scheduler.Params) Option {
	return func(s *Session) { s.params = p }
}

// WithImporter sets the deck importer.
func WithImporter(im *apkg.Importer) Option {
	return func(s *Session) { s.importer = im }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New starts a session for an already authenticated user. progress is the
// user's stored state and may be nil.
func New(username string, progress domain.UserProgress, opts ...Option) (*Session, error) {
	if err := validate.Var(username, `required,max=64,printascii,excludesall=/\`); err != nil {
		return nil, fmt.Errorf("invalid username %q: %w", username, err)
	}

	s := &Session{
		ID:       uuid.NewString(),
		Username: username,
		decks:    map[string]*domain.Deck{},
		progress: progress.Clone(),
		params:   scheduler.DefaultParams(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.params.Validate(); err != nil {
		return nil, err
	}
	if s.importer == nil {
		s.importer = apkg.NewImporter(apkg.Options{Logger: s.logger})
	}
	s.stats.Day = startOfDay(s.now())

	s.logger.Info("Session started", "session_id", s.ID, "user", username, "progress_entries", len(s.progress))
	return s, nil
}

// Import parses a deck archive, applies the user's stored progress and adds
// the deck to the session, replacing any deck of the same name.
func (s *Session) Import(r io.Reader, name string) (*apkg.Result, error) {
	res, err := s.importer.Import(r, name, s.now())
	if err != nil {
		return nil, err
	}
	applied := res.Deck.ApplyProgress(s.progress)

	if _, exists := s.decks[name]; !exists {
		s.order = append(s.order, name)
	}
	s.decks[name] = res.Deck

	s.logger.Info("Deck added to session",
		"session_id", s.ID,
		"deck", name,
		"cards", res.Deck.Len(),
		"restored", applied,
	)
	return res, nil
}

// Deck returns an imported deck by name.
func (s *Session) Deck(name string) (*domain.Deck, bool) {
	d, ok := s.decks[name]
	return d, ok
}

// Decks returns deck names in import order.
func (s *Session) Decks() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Next returns the next due card of a deck, or scheduler.ErrNoCardsDue.
func (s *Session) Next(deckName string) (domain.Card, error) {
	deck, ok := s.decks[deckName]
	if !ok {
		return domain.Card{}, fmt.Errorf("%w: %s", ErrUnknownDeck, deckName)
	}
	return scheduler.NextDue(deck.Cards(), s.now())
}

// NextSeen is Next restricted to cards the user has already reviewed. Callers
// use it once their daily cap on new cards is reached.
func (s *Session) NextSeen(deckName string) (domain.Card, error) {
	deck, ok := s.decks[deckName]
	if !ok {
		return domain.Card{}, fmt.Errorf("%w: %s", ErrUnknownDeck, deckName)
	}
	var seen []domain.Card
	for _, c := range deck.Cards() {
		if !s.IsNew(c.ID) {
			seen = append(seen, c)
		}
	}
	return scheduler.NextDue(seen, s.now())
}

// IsNew reports whether the user has no recorded review of cardID.
func (s *Session) IsNew(cardID string) bool {
	_, seen := s.progress.Lookup(cardID)
	return !seen
}

// Judge records the reviewer's outcome for a card and returns its new state.
func (s *Session) Judge(deckName, cardID string, outcome domain.ReviewOutcome) (domain.Card, error) {
	deck, ok := s.decks[deckName]
	if !ok {
		return domain.Card{}, fmt.Errorf("%w: %s", ErrUnknownDeck, deckName)
	}
	card, ok := deck.Card(cardID)
	if !ok {
		return domain.Card{}, fmt.Errorf("%w: %s in deck %s", ErrUnknownCard, cardID, deckName)
	}

	now := s.now()
	updated, err := s.params.Review(card, outcome, now)
	if err != nil {
		return domain.Card{}, err
	}

	isNew := s.IsNew(cardID)
	deck.Replace(updated)
	s.progress.Record(updated)

	s.rollStats(now)
	s.stats.Reviewed++
	if isNew {
		s.stats.New++
	}

	s.logger.Debug("Card judged",
		"session_id", s.ID,
		"deck", deckName,
		"card_id", cardID,
		"outcome", outcome,
		"interval", updated.Interval,
		"next_review", updated.NextReview,
	)
	return updated, nil
}

// Progress returns a copy of the user's progress for the caller to persist.
func (s *Session) Progress() domain.UserProgress {
	return s.progress.Clone()
}

// Stats returns the review counters for today.
func (s *Session) Stats() DailyStats {
	s.rollStats(s.now())
	return s.stats
}

func (s *Session) rollStats(now time.Time) {
	day := startOfDay(now)
	if !day.Equal(s.stats.Day) {
		s.stats = DailyStats{Day: day}
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
