package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logo is printed at the top of interactive runs
const Logo = "discogscatalog ◉ record collection catalog"

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
	quiet bool
)

// SetOutput redirects every Print helper. nil restores stdout.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	outMu.Lock()
	defer outMu.Unlock()
	quiet = q
}

func printLine(always bool, s string) {
	outMu.Lock()
	defer outMu.Unlock()
	if quiet && !always {
		return
	}
	fmt.Fprintln(out, s)
}

// PrintLogo prints the boxed application banner
func PrintLogo() {
	printLine(false, logoStyle.Render(Logo))
}

// PrintError prints an error message, followed by its detail when given
func PrintError(msg string, detail ...string) {
	printLine(true, Red(withDetail(msg, detail)))
}

// PrintWarning prints a warning message
func PrintWarning(msg string, detail ...string) {
	printLine(false, warningStyle.Render(withDetail(msg, detail)))
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	printLine(false, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label, value string) {
	printLine(false, fmt.Sprintf("%s: %s", Cyan(label), Yellow(value)))
}

// PrintHighlight prints an emphasised message
func PrintHighlight(msg string) {
	printLine(false, Magenta(msg))
}

// Println prints plain text, honouring quiet mode
func Println(s string) {
	printLine(false, s)
}

func withDetail(msg string, detail []string) string {
	if len(detail) > 0 && detail[0] != "" {
		return msg + ": " + detail[0]
	}
	return msg
}
