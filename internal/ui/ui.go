// Package ui provides the small set of terminal render helpers the command
// layer uses for status output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// colorEnabled reports whether the terminal supports color at all.
func colorEnabled() bool {
	return termenv.EnvColorProfile() != termenv.Ascii
}

// RenderAccent renders informational markers.
func RenderAccent(s string) string {
	if !colorEnabled() {
		return s
	}
	return accentStyle.Render(s)
}

// RenderPass renders success markers.
func RenderPass(s string) string {
	if !colorEnabled() {
		return s
	}
	return passStyle.Render(s)
}

// RenderWarn renders warning markers.
func RenderWarn(s string) string {
	if !colorEnabled() {
		return s
	}
	return warnStyle.Render(s)
}

// RenderFail renders failure markers.
func RenderFail(s string) string {
	if !colorEnabled() {
		return s
	}
	return failStyle.Render(s)
}
