package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/gofrs/flock"

	"discogscatalog/pkg/logger"
	"discogscatalog/pkg/models"
)

// FileName is the cache document inside the cache directory
const FileName = "releasesCache"

// ErrLocked is returned by Open when another process holds the cache
var ErrLocked = errors.New("release cache is locked by another run")

// Store is the persistent release id → ReportRow cache.
// Rows never expire; a stored row is reused as is until removed.
type Store struct {
	path   string
	lock   *flock.Flock
	logger logger.Logger

	mu    sync.RWMutex
	rows  map[string]models.ReportRow
	dirty bool
}

// Open loads <dir>/releasesCache if present and takes an exclusive lock on
// the cache for the lifetime of the Store.
func Open(dir string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock cache: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	s := &Store{
		path:   path,
		lock:   lock,
		logger: log,
		rows:   make(map[string]models.ReportRow),
	}
	if err := s.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"path":    path,
		"entries": len(s.rows),
	}).Debug("Release cache loaded")
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.rows); err != nil {
		return fmt.Errorf("failed to decode cache file %s: %w", s.path, err)
	}
	return nil
}

// Path returns the cache file location
func (s *Store) Path() string {
	return s.path
}

// Get returns the cached row for a release
func (s *Store) Get(id int64) (models.ReportRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[strconv.FormatInt(id, 10)]
	return row, ok
}

// Set stores row under its release id
func (s *Store) Set(row models.ReportRow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[row.Key()] = row
	s.dirty = true
}

// Remove deletes a release and reports whether it was present
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strconv.FormatInt(id, 10)
	if _, ok := s.rows[key]; !ok {
		return false
	}
	delete(s.rows, key)
	s.dirty = true
	return true
}

// Clear drops every row
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = make(map[string]models.ReportRow)
	s.dirty = true
}

// Len returns the number of cached rows
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Keys returns the cached release ids in ascending order
func (s *Store) Keys() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.rows))
	for key := range s.rows {
		if id, err := strconv.ParseInt(key, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Save writes the cache to disk atomically. It is a no-op when nothing changed.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.rows); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync cache file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	s.dirty = false
	s.logger.WithFields(map[string]interface{}{
		"path":    s.path,
		"entries": len(s.rows),
	}).Debug("Release cache saved")
	return nil
}

// Close saves pending changes and releases the lock
func (s *Store) Close() error {
	saveErr := s.Save()
	if err := s.lock.Unlock(); err != nil {
		return errors.Join(saveErr, fmt.Errorf("failed to release cache lock: %w", err))
	}
	return saveErr
}
