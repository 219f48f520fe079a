package apkg

import "errors"

// Import failures. Callers classify them with errors.Is.
var (
	// ErrInvalidArchive is returned when the input is not a readable zip container.
	ErrInvalidArchive = errors.New("invalid deck archive")

	// ErrMissingDatabase is returned when the archive holds no collection database.
	ErrMissingDatabase = errors.New("deck archive has no collection database")

	// ErrDatabase is returned for any failure reading the collection database.
	ErrDatabase = errors.New("collection database error")

	// ErrEmptyDeck is returned when the archive is valid but no note yields a card.
	ErrEmptyDeck = errors.New("deck has no usable cards")
)
