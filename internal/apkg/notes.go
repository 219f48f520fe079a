package apkg

import (
	"strings"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/fields"
	"github.com/conorfennell/knoldeck/internal/storage"
)

// mapNote converts a collection row into a card due at now. Rows with fewer
// than two fields return fields.ErrTooFewFields.
func mapNote(row storage.NoteRow, cleaner *fields.Cleaner, now time.Time) (domain.Card, error) {
	front, back, err := fields.FrontBack(row.Fields)
	if err != nil {
		return domain.Card{}, err
	}

	front, audioRef := fields.ExtractSound(front)

	return domain.NewCard(
		row.ID,
		cleaner.Clean(front),
		cleaner.Clean(back),
		audioRef,
		strings.TrimSpace(row.Tags),
		now,
	), nil
}
