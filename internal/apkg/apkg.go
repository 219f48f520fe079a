// Package apkg imports zip-compressed flashcard deck archives: a SQLite
// collection of notes and cards plus an optional media index.
package apkg

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zstd"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/fields"
	"github.com/conorfennell/knoldeck/internal/storage"
)

// databaseEntries lists the conventional collection entry names, newest format first.
var databaseEntries = []struct {
	name       string
	compressed bool // zstd
}{
	{"collection.anki21b", true},
	{"collection.anki21", false},
	{"collection.anki2", false},
}

// Options configures an Importer.
type Options struct {
	// ScratchDir is the parent of the per-import scratch directory; empty means os.TempDir.
	ScratchDir       string
	StripHTML        bool
	NormalizeUnicode bool
	Logger           *slog.Logger
}

// Importer turns deck archives into decks. It keeps no state between imports.
type Importer struct {
	scratchDir string
	cleaner    *fields.Cleaner
	logger     *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(opts Options) *Importer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		scratchDir: opts.ScratchDir,
		cleaner:    fields.NewCleaner(opts.StripHTML, opts.NormalizeUnicode),
		logger:     logger,
	}
}

// Result is the outcome of a successful import.
type Result struct {
	Deck     *domain.Deck
	Notes    int // notes read from the collection
	Skipped  int // notes dropped during validation
	Warnings []string
}

// ImportFile imports the archive at path. The deck is named after the file.
func (im *Importer) ImportFile(path string, now time.Time) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read deck archive %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return im.importBytes(data, name, now)
}

// Import reads a deck archive from r. Every imported card is due at now.
func (im *Importer) Import(r io.Reader, name string, now time.Time) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read deck archive: %w", err)
	}
	return im.importBytes(data, name, now)
}

func (im *Importer) importBytes(data []byte, name string, now time.Time) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload: %w", ErrInvalidArchive, mimetype.Detect(data), err)
	}

	scratch, err := os.MkdirTemp(im.scratchDir, "knoldeck-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			im.logger.Warn("Failed to remove scratch dir", "path", scratch, "error", err)
		}
	}()

	dbPath, err := extractDatabase(zr, scratch)
	if err != nil {
		return nil, err
	}

	rows, err := readNotes(dbPath)
	if err != nil {
		return nil, err
	}

	deck := domain.NewDeck(name)
	deck.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))
	res := &Result{Deck: deck, Notes: len(rows)}

	for _, row := range rows {
		card, err := mapNote(row, im.cleaner, now)
		if err == nil {
			err = deck.Add(card)
		}
		if err != nil {
			im.logger.Warn("Skipping note", "deck", name, "note_id", row.ID, "error", err)
			res.Skipped++
		}
	}

	media, err := readMedia(zr)
	if err != nil {
		im.logger.Warn("Ignoring media index", "deck", name, "error", err)
		res.Warnings = append(res.Warnings, err.Error())
		media = map[string]string{}
	}
	deck.Media = media

	if deck.Len() == 0 {
		return nil, fmt.Errorf("%w: %d notes read, %d skipped", ErrEmptyDeck, res.Notes, res.Skipped)
	}

	im.logger.Info("Deck imported",
		"deck", name,
		"cards", deck.Len(),
		"skipped", res.Skipped,
		"media", len(deck.Media),
	)
	return res, nil
}

// extractDatabase copies the collection database into dir and returns its path.
func extractDatabase(zr *zip.Reader, dir string) (string, error) {
	for _, entry := range databaseEntries {
		name := entry.name
		f, err := zr.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: open %s: %w", ErrInvalidArchive, name, err)
		}
		defer f.Close()

		var src io.Reader = f
		if entry.compressed {
			dec, err := zstd.NewReader(f)
			if err != nil {
				return "", fmt.Errorf("%w: decompress %s: %w", ErrDatabase, name, err)
			}
			defer dec.Close()
			src = dec
		}

		dest := filepath.Join(dir, "collection.db")
		if err := writeFile(dest, src); err != nil {
			return "", fmt.Errorf("%w: extract %s: %w", ErrDatabase, name, err)
		}
		return dest, nil
	}
	return "", ErrMissingDatabase
}

func writeFile(path string, src io.Reader) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func readNotes(path string) ([]storage.NoteRow, error) {
	coll, err := storage.OpenCollection(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	defer coll.Close()

	rows, err := coll.Notes(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabase, err)
	}
	return rows, nil
}

// readMedia returns an empty index when the archive has none.
func readMedia(zr *zip.Reader) (map[string]string, error) {
	f, err := zr.Open(mediaEntry)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open media index: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read media index: %w", err)
	}
	return parseMedia(data)
}
