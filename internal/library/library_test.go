package library

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knoldeck/internal/apkg"
	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/session"
	"github.com/conorfennell/knoldeck/internal/testsupport"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.apkg"), nil)
	writeFile(t, filepath.Join(root, "lang", "turkish.APKG"), nil)
	writeFile(t, filepath.Join(root, "notes.md"), nil)

	paths, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "b.apkg"),
		filepath.Join(root, "lang", "turkish.APKG"),
	}, paths)

	_, err = Scan(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestDeckName(t *testing.T) {
	root := filepath.Join("decks")
	assert.Equal(t, "lang/turkish", DeckName(root, filepath.Join(root, "lang", "turkish.apkg")))
	assert.Equal(t, "b", DeckName(root, filepath.Join(root, "b.apkg")))
}

func TestSync(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lang", "turkish.apkg"), testsupport.BuildArchive(t, []testsupport.Note{
		{ID: 1700000000001, Fields: "Hello [sound:a.mp3]\x1fMerhaba"},
		{ID: 1700000000002, Fields: "World\x1fDünya"},
	}))
	writeFile(t, filepath.Join(root, "verbs.apkg"), testsupport.BuildArchive(t, []testsupport.Note{
		{ID: 1700000000003, Fields: "Go\x1fGitmek"},
	}))
	writeFile(t, filepath.Join(root, "broken.apkg"), []byte("not a zip"))

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stored := domain.UserProgress{
		"1700000000001": {Interval: 2, EaseFactor: 2.5, NextReview: now},
		"1600000000000": {Interval: 8, EaseFactor: 2.5, NextReview: now},
	}
	s, err := session.New("yigit", stored,
		session.WithLogger(logger),
		session.WithClock(func() time.Time { return now }),
		session.WithImporter(apkg.NewImporter(apkg.Options{ScratchDir: t.TempDir(), Logger: logger})),
	)
	require.NoError(t, err)

	report, err := Sync(s, root, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"lang/turkish", "verbs"}, report.Decks)
	assert.Equal(t, 3, report.Cards)
	assert.Equal(t, 1, report.Orphaned)
	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0], apkg.ErrInvalidArchive)

	deck, ok := s.Deck("lang/turkish")
	require.True(t, ok)
	card, _ := deck.Card("1700000000001")
	assert.Equal(t, 2, card.Interval)
}
