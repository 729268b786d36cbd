package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discogscatalog/pkg/logger"
)

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NewTestLogger())}, opts...)
	m, err := NewManager(filepath.Join(t.TempDir(), "images"), opts...)
	require.NoError(t, err)
	return m
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestManagerSaveAndHas(t *testing.T) {
	m := newTestManager(t)

	assert.False(t, m.Has(42))
	assert.Equal(t, filepath.Join(m.Dir(), "42.jpg"), m.Path(42))

	data := []byte("not really a jpeg")
	require.NoError(t, m.Save(42, bytes.NewReader(data)))

	assert.True(t, m.Has(42))
	got, err := os.ReadFile(m.Path(42))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = os.Stat(m.Path(42) + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be gone")

	count, err := m.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestManagerSeesExistingFiles(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "7.jpg"), []byte("x"), 0644))

	other, err := NewManager(m.Dir(), WithLogger(logger.NewTestLogger()))
	require.NoError(t, err)
	assert.True(t, other.Has(7))
}

func TestManagerDownscale(t *testing.T) {
	m := newTestManager(t, WithMaxDimension(50))

	require.NoError(t, m.Save(1, bytes.NewReader(jpegBytes(t, 200, 100))))

	f, err := os.Open(m.Path(1))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
}

func TestManagerDownscaleKeepsUndecodableBytes(t *testing.T) {
	tl := logger.NewTestLogger()
	m := newTestManager(t, WithMaxDimension(50), WithLogger(tl))

	require.NoError(t, m.Save(2, bytes.NewReader([]byte("garbage"))))

	got, err := os.ReadFile(m.Path(2))
	require.NoError(t, err)
	assert.Equal(t, []byte("garbage"), got)
	assert.NotEmpty(t, tl.GetMessagesByLevel("WARN"))
}

func TestDownscaleSmallImageUnchanged(t *testing.T) {
	data := jpegBytes(t, 40, 30)
	out, err := Downscale(data, 150)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestCopyToPreservesSymlinks(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Save(1, bytes.NewReader([]byte("one"))))
	require.NoError(t, m.Save(2, bytes.NewReader([]byte("two!"))))
	require.NoError(t, os.Symlink("1.jpg", filepath.Join(m.Dir(), "3.jpg")))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "4.jpg.tmp"), []byte("partial"), 0644))

	dst := filepath.Join(t.TempDir(), "dist", "images")
	stats, err := m.CopyTo(context.Background(), dst)
	require.NoError(t, err)

	assert.Equal(t, CopyStats{Files: 2, Symlinks: 1, Bytes: 7}, stats)

	got, err := os.ReadFile(filepath.Join(dst, "2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "two!", string(got))

	target, err := os.Readlink(filepath.Join(dst, "3.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "1.jpg", target)

	_, err = os.Stat(filepath.Join(dst, "4.jpg.tmp"))
	assert.True(t, os.IsNotExist(err))

	// a second copy overwrites in place
	stats, err = m.CopyTo(context.Background(), dst)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
}

func TestCopyToCancelled(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Save(1, bytes.NewReader([]byte("one"))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.CopyTo(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
