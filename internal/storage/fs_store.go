package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileExt is appended to every key to form its file name.
const FileExt = ".json"

// FSStore is a filesystem-based Backend. Each key is one file in a flat directory:
//
//	<dir>/
//	  suite.tasks.json
//	  suite.currentIntention.json
//	  ff_work.json
//
// Writes go to a hidden temp file in the same directory which is synced and then
// renamed over the target, so readers in other processes never see a torn value.
type FSStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFSStore creates the data directory if needed and returns a store rooted there.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, storageFailure(err, "file", "mkdir", dir)
	}
	return &FSStore{dir: dir}, nil
}

func (fs *FSStore) Name() string { return "file" }

// Dir returns the data directory.
func (fs *FSStore) Dir() string { return fs.dir }

// Path returns the file backing key.
func (fs *FSStore) Path(key string) string {
	return filepath.Join(fs.dir, key+FileExt)
}

// KeyFromPath maps a file in the data directory back to its key. ok is false for
// temp files and anything that is not a slot file.
func KeyFromPath(path string) (key string, ok bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, FileExt) {
		return "", false
	}
	key = strings.TrimSuffix(base, FileExt)
	return key, ValidateKey(key) == nil
}

func (fs *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Key: key}
		}
		return nil, storageFailure(err, "file", "read", key)
	}
	return data, nil
}

func (fs *FSStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := writeFileAtomic(fs.dir, fs.Path(key), value); err != nil {
		return storageFailure(err, "file", "write", key)
	}
	return nil
}

func (fs *FSStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, storageFailure(err, "file", "list", "")
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if key, ok := KeyFromPath(e.Name()); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// UpdatedAt returns the modification time of key's file.
func (fs *FSStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	if err := ValidateKey(key); err != nil {
		return time.Time{}, err
	}
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	info, err := os.Stat(fs.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, ErrNotFound{Key: key}
		}
		return time.Time{}, storageFailure(err, "file", "stat", key)
	}
	return info.ModTime(), nil
}

func (fs *FSStore) Close() error { return nil }

func writeFileAtomic(dir, path string, content []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-ops once the rename succeeded.
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
