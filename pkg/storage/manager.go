package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"discogscatalog/pkg/logger"
)

const imageExt = ".jpg"

// Manager is the on-disk thumbnail cache, one {id}.jpg per release.
// A file's presence is the only record that a thumbnail is cached.
type Manager struct {
	dir          string
	maxDimension int
	logger       logger.Logger
	mu           sync.Mutex
}

// Option configures a Manager
type Option func(*Manager)

// WithMaxDimension downscales saved thumbnails to fit a box of n pixels
func WithMaxDimension(n int) Option {
	return func(m *Manager) { m.maxDimension = n }
}

// WithLogger sets the logger used for save and copy events
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates the cache directory if needed
func NewManager(dir string, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image cache directory: %w", err)
	}

	m := &Manager{dir: dir}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.GetLogger()
	}
	return m, nil
}

// Dir returns the cache directory
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns where the thumbnail for id lives, whether or not it exists
func (m *Manager) Path(id int64) string {
	return filepath.Join(m.dir, strconv.FormatInt(id, 10)+imageExt)
}

// Has reports whether a thumbnail for id is on disk
func (m *Manager) Has(id int64) bool {
	_, err := os.Lstat(m.Path(id))
	return err == nil
}

// Save writes the thumbnail for id through a temporary file and rename
func (m *Manager) Save(id int64, r io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var src io.Reader = r
	if m.maxDimension > 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("failed to read thumbnail data: %w", err)
		}
		resized, err := Downscale(data, m.maxDimension)
		if err != nil {
			// keep the original bytes rather than lose the thumbnail
			m.logger.WithError(err).WithField("release_id", id).Warn("Thumbnail could not be resized, storing as served")
			resized = data
		}
		src = bytes.NewReader(resized)
	}

	filename := m.Path(id)
	if err := writeAtomic(filename, src, 0644); err != nil {
		return fmt.Errorf("failed to save thumbnail %d: %w", id, err)
	}

	m.logger.WithFields(map[string]interface{}{
		"release_id": id,
		"path":       filename,
	}).Debug("Thumbnail written to image cache")
	return nil
}

// Count returns the number of cached thumbnails
func (m *Manager) Count() (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read image cache: %w", err)
	}

	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), imageExt) {
			n++
		}
	}
	return n, nil
}

// writeAtomic copies r into path.tmp then renames it over path
func writeAtomic(path string, r io.Reader, perm os.FileMode) error {
	tempFile := path + ".tmp"
	out, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
