package domain

import "fmt"

// Deck is a named collection of cards imported together. Cards keep the order
// in which they were added.
type Deck struct {
	Name     string
	Checksum string
	// Media maps the archive's media index keys to file names.
	Media map[string]string

	cards []Card
	index map[string]int
}

// NewDeck returns an empty deck.
func NewDeck(name string) *Deck {
	return &Deck{
		Name:  name,
		Media: map[string]string{},
		index: map[string]int{},
	}
}

// Add appends a card. Card ids are unique within a deck.
func (d *Deck) Add(c Card) error {
	if _, ok := d.index[c.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCard, c.ID)
	}
	d.index[c.ID] = len(d.cards)
	d.cards = append(d.cards, c)
	return nil
}

// Len returns the number of cards.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Card looks up a card by id.
func (d *Deck) Card(id string) (Card, bool) {
	i, ok := d.index[id]
	if !ok {
		return Card{}, false
	}
	return d.cards[i], true
}

// Cards returns a copy of the cards in source order.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Replace overwrites the stored card with the same id, keeping its position.
func (d *Deck) Replace(c Card) bool {
	i, ok := d.index[c.ID]
	if !ok {
		return false
	}
	d.cards[i] = c
	return true
}

// ApplyProgress overrides the scheduling state of every card that has an entry
// in p and returns how many cards were updated.
func (d *Deck) ApplyProgress(p UserProgress) int {
	applied := 0
	for i, c := range d.cards {
		s, ok := p[c.ID]
		if !ok {
			continue
		}
		d.cards[i] = c.WithState(s)
		applied++
	}
	return applied
}

// MediaKey returns the archive entry name under which filename is stored.
func (d *Deck) MediaKey(filename string) (string, bool) {
	for key, name := range d.Media {
		if name == filename {
			return key, true
		}
	}
	return "", false
}
