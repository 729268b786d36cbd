package ui

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"discogscatalog/pkg/discogs"
)

// ErrNotInteractive is returned by the picker when stdin is not a terminal
var ErrNotInteractive = errors.New("folder picker needs an interactive terminal")

// IsInteractive reports whether stdin and stdout are both terminals
func IsInteractive() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

// FolderOptions builds the select entries shown by PickFolder, labelling
// each folder with its release count and preselecting current
func FolderOptions(folders []discogs.Folder, current string) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(folders))
	for _, f := range folders {
		option := huh.NewOption(fmt.Sprintf("%s (%d)", f.Name, f.Count), f.Name)
		if f.Name == current {
			option = option.Selected(true)
		}
		options = append(options, option)
	}
	return options
}

// PickFolder asks the user to choose one collection folder and returns its
// name. current preselects a folder when it exists.
func PickFolder(folders []discogs.Folder, current string) (string, error) {
	if len(folders) == 0 {
		return "", errors.New("no collection folders to choose from")
	}
	if !IsInteractive() {
		return "", ErrNotInteractive
	}

	selected := current
	err := huh.NewSelect[string]().
		Title("Collection folder").
		Description("Releases from this folder end up in the catalog").
		Options(FolderOptions(folders, current)...).
		Value(&selected).
		Run()
	if err != nil {
		return "", fmt.Errorf("folder selection: %w", err)
	}
	return selected, nil
}
