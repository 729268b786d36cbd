package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discogscatalog/pkg/discogs"
	"discogscatalog/pkg/models"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetQuietMode(false)
	})
	return &buf
}

func TestPrintHelpers(t *testing.T) {
	buf := captureOutput(t)

	PrintInfo("Folder", "Jazz")
	PrintSuccess("done")
	PrintWarning("slow", "rate limited")
	PrintError("failed", "boom")

	out := buf.String()
	assert.Contains(t, out, "Folder")
	assert.Contains(t, out, "Jazz")
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "slow: rate limited")
	assert.Contains(t, out, "failed: boom")
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)

	PrintInfo("Folder", "Jazz")
	PrintSuccess("done")
	PrintError("failed")

	assert.NotContains(t, buf.String(), "Jazz")
	assert.NotContains(t, buf.String(), "done")
	assert.Contains(t, buf.String(), "failed")
}

func TestProgressDisplay(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, "Jazz")
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p.startTime = start
	p.now = func() time.Time { return start.Add(20 * time.Second) }

	release := discogs.Release{ID: 1}
	release.BasicInformation.Title = "Kind of Blue"

	p.ReleaseStarted(release, 0, 4)
	assert.Empty(t, buf.String(), "non-terminal output only prints finished releases")

	p.ReleaseDone(models.ReportRow{ID: 1, Artist: "Davis, Miles", Title: "Kind of Blue"}, true)
	p.ReleaseDone(models.ReportRow{ID: 2, Artist: "Coltrane, John", Title: "Giant Steps"}, false)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "2/4")
	assert.Contains(t, lines[1], "1 cached")
	assert.Contains(t, lines[1], "eta 20s")
	assert.Contains(t, lines[1], "Giant Steps")

	p.ReleaseFailed(release, errors.New("boom"))
	assert.Contains(t, p.Line(), "1 failed")

	p.Complete()
	assert.Contains(t, buf.String(), "2 releases from Jazz in 20s (1 cached)")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestFolderOptions(t *testing.T) {
	folders := []discogs.Folder{{ID: 0, Name: "All", Count: 30}, {ID: 1, Name: "Jazz", Count: 12}}

	options := FolderOptions(folders, "Jazz")
	require.Len(t, options, 2)
	assert.Equal(t, "All (30)", options[0].Key)
	assert.Equal(t, "All", options[0].Value)
	assert.Equal(t, "Jazz", options[1].Value)
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

func TestNotifier(t *testing.T) {
	buf := captureOutput(t)
	sender := &recordingSender{}

	NewNotifierWithSender(sender, true).SendSuccess("Catalog ready", "20 releases")
	NewNotifierWithSender(sender, true).Notify("Catalog failed", "boom")
	NewNotifierWithSender(sender, false).SendSuccess("Disabled", "not sent")

	assert.Equal(t, []string{"Catalog ready", "Catalog failed"}, sender.titles)
	assert.Contains(t, buf.String(), "Catalog ready: 20 releases")
	assert.NotContains(t, buf.String(), "Catalog failed")
}
