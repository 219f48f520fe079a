package progress

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/conorfennell/knoldeck/internal/domain"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps one JSON progress file per user in Dir.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Path returns the progress file of username.
func (s *FileStore) Path(username string) string {
	return filepath.Join(s.Dir, username+"_progress.json")
}

// LoadProgress reads the progress of username. A user without a file has
// empty progress.
func (s *FileStore) LoadProgress(ctx context.Context, username string) (domain.UserProgress, error) {
	path := s.Path(username)
	unlock, err := s.lock(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.UserProgress{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open progress file: %w", err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// SaveProgress replaces the progress file of username atomically.
func (s *FileStore) SaveProgress(ctx context.Context, username string, p domain.UserProgress) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create progress dir: %w", err)
	}

	path := s.Path(username)
	unlock, err := s.lock(ctx, path, true)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(s.Dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp progress file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, p); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp progress file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace progress file: %w", err)
	}
	return nil
}

// lock takes an advisory lock on a sibling .lock file. Readers share the lock.
func (s *FileStore) lock(ctx context.Context, path string, exclusive bool) (func(), error) {
	if _, err := os.Stat(s.Dir); errors.Is(err, os.ErrNotExist) {
		return func() {}, nil
	}

	fl := flock.New(path + ".lock")
	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("lock progress file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock progress file: %s is held by another process", path)
	}
	return func() { _ = fl.Unlock() }, nil
}
