package domain

// UserProgress maps card ids to their scheduling state for one user. It is
// independent of any deck, so progress survives a re-import as long as the
// source note ids stay stable.
type UserProgress map[string]State

// Record stores the card's current scheduling state.
func (p UserProgress) Record(c Card) {
	p[c.ID] = c.State()
}

// Lookup returns the stored state for id.
func (p UserProgress) Lookup(id string) (State, bool) {
	s, ok := p[id]
	return s, ok
}

// Clone returns an independent copy.
func (p UserProgress) Clone() UserProgress {
	out := make(UserProgress, len(p))
	for id, s := range p {
		out[id] = s
	}
	return out
}
