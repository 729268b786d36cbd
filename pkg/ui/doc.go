// Package ui holds the terminal-facing pieces of discogscatalog: styled
// status messages, the per-release progress line, the interactive folder
// picker and desktop notifications.
package ui
