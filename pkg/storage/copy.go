package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

const copyConcurrency = 4

// CopyStats summarises a CopyTo run
type CopyStats struct {
	Files    int
	Symlinks int
	Bytes    int64
}

// CopyTo mirrors every cached thumbnail into dst. Symlinks are recreated as
// symlinks with the same target instead of being followed. Existing files
// in dst are overwritten.
func (m *Manager) CopyTo(ctx context.Context, dst string) (CopyStats, error) {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return CopyStats{}, fmt.Errorf("failed to create output images directory: %w", err)
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return CopyStats{}, fmt.Errorf("failed to read image cache: %w", err)
	}

	var files, links int32
	var size int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(copyConcurrency)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, ".tmp") {
			continue
		}
		src := filepath.Join(m.dir, name)
		target := filepath.Join(dst, name)

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			info, err := os.Lstat(src)
			if err != nil {
				return err
			}

			if info.Mode()&os.ModeSymlink != 0 {
				if err := copySymlink(src, target); err != nil {
					return err
				}
				atomic.AddInt32(&links, 1)
				return nil
			}

			n, err := copyFile(src, target, info.Mode().Perm())
			if err != nil {
				return err
			}
			atomic.AddInt32(&files, 1)
			atomic.AddInt64(&size, n)
			return nil
		})
	}

	err = g.Wait()
	stats := CopyStats{Files: int(files), Symlinks: int(links), Bytes: size}
	if err != nil {
		return stats, fmt.Errorf("failed to copy thumbnails: %w", err)
	}

	m.logger.WithFields(map[string]interface{}{
		"files":    stats.Files,
		"symlinks": stats.Symlinks,
		"size":     humanize.Bytes(uint64(stats.Bytes)),
		"dest":     dst,
	}).Info("Copied cached thumbnails")
	return stats, nil
}

func copySymlink(src, dst string) error {
	linkTarget, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(linkTarget, dst)
}

func copyFile(src, dst string, perm os.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	counter := &countingReader{r: in}
	if err := writeAtomic(dst, counter, perm); err != nil {
		return 0, err
	}
	return counter.n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
