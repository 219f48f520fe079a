// Package library imports every deck archive found under a directory tree
// into a session.
package library

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/knoldeck/internal/session"
)

// Extension is the file suffix of deck archives.
const Extension = ".apkg"

// Report summarizes one Sync.
type Report struct {
	Decks []string
	Cards int
	// Orphaned counts progress entries whose card is in none of the decks.
	Orphaned int
	Errors   []error
}

// Scan returns the deck archives under root in lexical order.
func Scan(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), Extension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}

// DeckName names a deck by its path relative to root, without extension and
// with forward slashes.
func DeckName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
}

// Sync imports every deck under root. A deck that fails to import is recorded
// in the report and does not stop the others.
func Sync(s *session.Session, root string, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	paths, err := Scan(root)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, path := range paths {
		name := DeckName(root, path)
		cards, err := importOne(s, path, name)
		if err != nil {
			logger.Warn("Deck import failed", "path", path, "error", err)
			report.Errors = append(report.Errors, fmt.Errorf("importing %s: %w", path, err))
			continue
		}
		report.Decks = append(report.Decks, name)
		report.Cards += cards
	}
	report.Orphaned = countOrphaned(s, report.Decks)

	logger.Info("Library sync complete",
		"path", root,
		"decks", len(report.Decks),
		"cards", report.Cards,
		"orphaned_progress", report.Orphaned,
		"errors", len(report.Errors),
	)
	return report, nil
}

func importOne(s *session.Session, path, name string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	res, err := s.Import(f, name)
	if err != nil {
		return 0, err
	}
	return res.Deck.Len(), nil
}

func countOrphaned(s *session.Session, decks []string) int {
	orphaned := 0
	for id := range s.Progress() {
		found := false
		for _, name := range decks {
			deck, _ := s.Deck(name)
			if _, ok := deck.Card(id); ok {
				found = true
				break
			}
		}
		if !found {
			orphaned++
		}
	}
	return orphaned
}
