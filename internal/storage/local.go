package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// LocalStore implements Store on local disk with a byte quota.
// When a write would push total usage over the quota, the oldest entries
// are evicted until the new object fits. A single object larger than the
// whole quota is rejected with ErrObjectTooLarge.
type LocalStore struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
	used     int64
	entries  map[string]Entry
}

// NewLocalStore creates a media store rooted at dir. If dir is empty a
// directory under os.TempDir() is used. maxBytes <= 0 disables the quota.
// The directory is created if it does not exist.
func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "media-studio")
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}

	return &LocalStore{
		dir:      dir,
		maxBytes: maxBytes,
		entries:  make(map[string]Entry),
	}, nil
}

// Dir returns the store's root directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put stores data under entry.Key, evicting oldest entries if needed.
func (s *LocalStore) Put(ctx context.Context, entry Entry, data io.Reader) (Entry, error) {
	select {
	case <-ctx.Done():
		return Entry{}, fmt.Errorf("storage: context cancelled: %w", ctx.Err())
	default:
	}

	if entry.Key == "" {
		return Entry{}, fmt.Errorf("storage: entry key is required")
	}

	path := s.pathFor(entry.Key)
	f, err := os.Create(path) // #nosec G304 - path is derived from a sanitized key
	if err != nil {
		return Entry{}, fmt.Errorf("create media file: %w", err)
	}

	size, err := io.Copy(f, data)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return Entry{}, fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return Entry{}, fmt.Errorf("close media file: %w", err)
	}

	if s.maxBytes > 0 && size > s.maxBytes {
		_ = os.Remove(path)
		return Entry{}, fmt.Errorf("%w: %d bytes", ErrObjectTooLarge, size)
	}

	entry.Size = size
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[entry.Key]; ok {
		s.used -= old.Size
	}
	s.entries[entry.Key] = entry
	s.used += size
	s.evictLocked(entry.Key)

	return entry, nil
}

// evictLocked removes oldest entries until usage fits the quota.
// The entry named by keep is never evicted. Caller holds the lock.
func (s *LocalStore) evictLocked(keep string) {
	if s.maxBytes <= 0 {
		return
	}

	for s.used > s.maxBytes {
		oldest, ok := s.oldestLocked(keep)
		if !ok {
			return
		}
		s.used -= oldest.Size
		delete(s.entries, oldest.Key)
		_ = os.Remove(s.pathFor(oldest.Key))
	}
}

// oldestLocked finds the oldest entry other than keep.
func (s *LocalStore) oldestLocked(keep string) (Entry, bool) {
	var oldest Entry
	found := false
	for key, e := range s.entries {
		if key == keep {
			continue
		}
		if !found || e.CreatedAt.Before(oldest.CreatedAt) {
			oldest = e
			found = true
		}
	}
	return oldest, found
}

// Get returns the entry and a reader over its data.
func (s *LocalStore) Get(ctx context.Context, key string) (Entry, io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return Entry{}, nil, fmt.Errorf("storage: context cancelled: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	entry, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return Entry{}, nil, ErrNotFound
	}

	f, err := os.Open(s.pathFor(key)) // #nosec G304 - path is derived from a sanitized key
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, nil, ErrNotFound
		}
		return Entry{}, nil, fmt.Errorf("open media file: %w", err)
	}

	return entry, f, nil
}

// Delete removes an entry and its file.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return ErrNotFound
	}

	delete(s.entries, key)
	s.used -= entry.Size

	if err := os.Remove(s.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

// ListByType returns entries of the given type, newest first.
func (s *LocalStore) ListByType(_ context.Context, t MediaType) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if t == "" || e.Type == t {
			result = append(result, e)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// UsedBytes returns the current total size of stored objects.
func (s *LocalStore) UsedBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// pathFor maps a key to a file path, flattening any separators so keys
// cannot escape the store directory.
func (s *LocalStore) pathFor(key string) string {
	clean := filepath.Base(filepath.Clean(key))
	return filepath.Join(s.dir, clean)
}

// Compile-time check that LocalStore implements Store.
var _ Store = (*LocalStore)(nil)
