// Package progress serializes per-user review progress and stores it in
// files.
package progress

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/conorfennell/knoldeck/internal/domain"
)

// Encode writes p as a flat JSON object keyed by card id.
func Encode(w io.Writer, p domain.UserProgress) error {
	if p == nil {
		p = domain.UserProgress{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	return nil
}

// Decode reads progress written by Encode. Every entry must satisfy the
// scheduling invariants.
func Decode(r io.Reader) (domain.UserProgress, error) {
	var p domain.UserProgress
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	if p == nil {
		p = domain.UserProgress{}
	}
	for id, s := range p {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("decode progress: card %s: %w", id, err)
		}
	}
	return p, nil
}
