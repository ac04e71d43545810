// SPDX-License-Identifier: MPL-2.0

package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bitproto/bitbench/internal/config"
)

// Color palette shared by every console renderer. Tuned for dark backgrounds.
const (
	// ColorPrimary is purple, used for section headers.
	ColorPrimary = lipgloss.Color("#7C3AED")
	// ColorMuted is gray, used for secondary text.
	ColorMuted = lipgloss.Color("#6B7280")
	// ColorSuccess is green.
	ColorSuccess = lipgloss.Color("#10B981")
	// ColorError is red.
	ColorError = lipgloss.Color("#EF4444")
	// ColorWarning is amber, used for skipped scenarios.
	ColorWarning = lipgloss.Color("#F59E0B")
	// ColorHighlight is blue, used for labels and baselines.
	ColorHighlight = lipgloss.Color("#3B82F6")
	// ColorVerbose is light gray, used for raw driver output.
	ColorVerbose = lipgloss.Color("#9CA3AF")
)

// Styles holds the styles of one renderer.
type Styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Highlight lipgloss.Style
	Output    lipgloss.Style
	Border    lipgloss.Style
	Header    lipgloss.Style
	Cell      lipgloss.Style
}

// NewRenderer returns a lipgloss renderer for w honoring the color mode.
func NewRenderer(w io.Writer, mode config.ColorMode) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case config.ColorNever:
		r.SetColorProfile(termenv.Ascii)
	case config.ColorAlways:
		r.SetColorProfile(termenv.TrueColor)
	}
	return r
}

// NewStyles builds the palette styles on r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:     r.NewStyle().Bold(true).Foreground(ColorPrimary),
		Subtitle:  r.NewStyle().Foreground(ColorMuted),
		Success:   r.NewStyle().Foreground(ColorSuccess),
		Error:     r.NewStyle().Bold(true).Foreground(ColorError),
		Warning:   r.NewStyle().Foreground(ColorWarning),
		Highlight: r.NewStyle().Foreground(ColorHighlight),
		Output:    r.NewStyle().Foreground(ColorVerbose),
		Border:    r.NewStyle().Foreground(ColorMuted),
		Header:    r.NewStyle().Bold(true).Foreground(ColorPrimary).Padding(0, 1),
		Cell:      r.NewStyle().Padding(0, 1),
	}
}

// PlainStyles returns styles that never emit escape sequences.
func PlainStyles() Styles {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return NewStyles(r)
}
