// Package ui provides terminal output helpers for the CLI: styles, status
// symbols, tables and progress reporting.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Accent style for UIDs, identifiers and other values worth spotting
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#5EB0BF"))

	// Muted style for secondary info and hints
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for headers and emphasis
	Bold = lipgloss.NewStyle().Bold(true)
)
