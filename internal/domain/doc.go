// Package domain defines the cards, decks and review progress shared by the
// importer, the scheduler and the session layer.
package domain
