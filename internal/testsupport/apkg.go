// Package testsupport builds collection databases and deck archives for tests.
package testsupport

import (
	"archive/zip"
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

// Note describes one row of a fixture collection.
type Note struct {
	ID      int64
	Fields  string
	Tags    string
	NoCards bool // leave the note without a row in the cards relation
}

const collectionSchema = `
CREATE TABLE notes (
    id INTEGER PRIMARY KEY,
    guid TEXT NOT NULL,
    mid INTEGER NOT NULL,
    mod INTEGER NOT NULL,
    tags TEXT NOT NULL,
    flds TEXT NOT NULL,
    sfld TEXT NOT NULL
);
CREATE TABLE cards (
    id INTEGER PRIMARY KEY,
    nid INTEGER NOT NULL,
    did INTEGER NOT NULL,
    ord INTEGER NOT NULL,
    due INTEGER NOT NULL,
    ivl INTEGER NOT NULL,
    factor INTEGER NOT NULL
);
`

// WriteCollection creates a SQLite collection at path holding notes.
func WriteCollection(t testing.TB, path string, notes []Note) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open collection %s: %v", path, err)
	}
	defer db.Close()

	if _, err := db.Exec(collectionSchema); err != nil {
		t.Fatalf("create collection schema: %v", err)
	}
	for i, n := range notes {
		if _, err := db.Exec(
			`INSERT INTO notes (id, guid, mid, mod, tags, flds, sfld) VALUES (?, ?, 1, 0, ?, ?, '')`,
			n.ID, filepath.Base(path)+string(rune('a'+i)), n.Tags, n.Fields,
		); err != nil {
			t.Fatalf("insert note %d: %v", n.ID, err)
		}
		if n.NoCards {
			continue
		}
		if _, err := db.Exec(
			`INSERT INTO cards (id, nid, did, ord, due, ivl, factor) VALUES (?, ?, 1, 0, 9999, 30, 2500)`,
			n.ID+1, n.ID,
		); err != nil {
			t.Fatalf("insert card for note %d: %v", n.ID, err)
		}
	}
}

// ArchiveOption customizes BuildArchive.
type ArchiveOption func(*archiveBuilder)

type archiveBuilder struct {
	dbName  string
	noDB    bool
	zstd    bool
	media   *string
	entries map[string][]byte
	rawDB   []byte
}

// WithDatabaseName stores the collection under name instead of collection.anki2.
func WithDatabaseName(name string) ArchiveOption {
	return func(b *archiveBuilder) {
		b.dbName = name
	}
}

// WithZstdDatabase stores a zstd-compressed collection as collection.anki21b.
func WithZstdDatabase() ArchiveOption {
	return func(b *archiveBuilder) {
		b.dbName = "collection.anki21b"
		b.zstd = true
	}
}

// WithoutDatabase omits the collection file.
func WithoutDatabase() ArchiveOption {
	return func(b *archiveBuilder) {
		b.noDB = true
	}
}

// WithRawDatabase stores data verbatim as the collection file.
func WithRawDatabase(data []byte) ArchiveOption {
	return func(b *archiveBuilder) {
		b.rawDB = data
	}
}

// WithMedia adds a media index with the given content.
func WithMedia(content string) ArchiveOption {
	return func(b *archiveBuilder) {
		b.media = &content
	}
}

// WithEntry adds an arbitrary file to the archive.
func WithEntry(name string, data []byte) ArchiveOption {
	return func(b *archiveBuilder) {
		b.entries[name] = data
	}
}

// BuildArchive returns the bytes of a deck archive holding notes.
func BuildArchive(t testing.TB, notes []Note, opts ...ArchiveOption) []byte {
	t.Helper()

	b := &archiveBuilder{dbName: "collection.anki2", entries: map[string][]byte{}}
	for _, opt := range opts {
		opt(b)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}

	if !b.noDB {
		data := b.rawDB
		if data == nil {
			data = collectionBytes(t, notes)
		}
		if b.zstd {
			data = compress(t, data)
		}
		write(b.dbName, data)
	}
	if b.media != nil {
		write("media", []byte(*b.media))
	}
	for name, data := range b.entries {
		write(name, data)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func collectionBytes(t testing.TB, notes []Note) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collection.anki2")
	WriteCollection(t, path, notes)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read collection: %v", err)
	}
	return data
}

func compress(t testing.TB, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("create zstd encoder: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}
