package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"discogscatalog/pkg/discogs"
	"discogscatalog/pkg/models"
)

const progressBarWidth = 20

// ProgressDisplay prints one progress line per release. On a terminal the
// line is redrawn in place.
type ProgressDisplay struct {
	mu        sync.Mutex
	w         io.Writer
	redraw    bool
	folder    string
	total     int
	done      int
	cached    int
	failed    int
	current   string
	startTime time.Time
	now       func() time.Time
}

// NewProgressDisplay creates a display for a folder. Redrawing is enabled
// when w is a terminal.
func NewProgressDisplay(w io.Writer, folder string) *ProgressDisplay {
	redraw := false
	if f, ok := w.(*os.File); ok {
		redraw = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &ProgressDisplay{
		w:         w,
		redraw:    redraw,
		folder:    folder,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// SetFolder changes the folder label, for folders picked after creation
func (p *ProgressDisplay) SetFolder(folder string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.folder = folder
}

func (p *ProgressDisplay) ReleaseStarted(release discogs.Release, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = release.BasicInformation.Title
	if p.redraw {
		p.print()
	}
}

func (p *ProgressDisplay) ReleaseDone(row models.ReportRow, cached bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if cached {
		p.cached++
	}
	p.current = row.Artist + " - " + row.Title
	p.print()
}

func (p *ProgressDisplay) ReleaseFailed(release discogs.Release, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failed++
	if p.redraw {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintf(p.w, "%s %s: %v\n", Red("✗"), release.BasicInformation.Title, err)
}

// Complete ends the progress line and prints a short tally
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.redraw {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintf(p.w, "%s %d releases from %s in %s (%d cached)\n",
		Green("✓"), p.done, p.folder, formatDuration(p.now().Sub(p.startTime)), p.cached)
}

// Line renders the current progress line without writing it
func (p *ProgressDisplay) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line()
}

func (p *ProgressDisplay) print() {
	if p.redraw {
		fmt.Fprintf(p.w, "\r\033[K%s", p.line())
		return
	}
	fmt.Fprintln(p.w, p.line())
}

func (p *ProgressDisplay) line() string {
	filled := 0
	if p.total > 0 {
		filled = p.done * progressBarWidth / p.total
	}
	bar := barStyle.Render(strings.Repeat("━", filled)) +
		barEmptyStyle.Render(strings.Repeat("─", progressBarWidth-filled))

	line := fmt.Sprintf("%s [%s] %d/%d • %d cached • %s",
		Cyan(p.folder), bar, p.done, p.total, p.cached, p.eta())
	if p.current != "" {
		line += " • " + Dim(truncate(p.current, 40))
	}
	if p.failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d failed", p.failed))
	}
	return line
}

// eta extrapolates from the average time per finished release
func (p *ProgressDisplay) eta() string {
	if p.done == 0 || p.total <= p.done {
		return "eta -"
	}
	perRelease := p.now().Sub(p.startTime) / time.Duration(p.done)
	return "eta " + formatDuration(perRelease*time.Duration(p.total-p.done))
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
