package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/museumhub/pkg/catalog"
)

// TermProfile holds the detected terminal color profile, computed once at
// package init.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	Completed  lipgloss.AdaptiveColor
	InProgress lipgloss.AdaptiveColor
	Danger     lipgloss.AdaptiveColor

	// Lesson types
	Video    lipgloss.AdaptiveColor
	External lipgloss.AdaptiveColor
	Guided   lipgloss.AdaptiveColor

	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	Base         lipgloss.Style
	Selected     lipgloss.Style
	Header       lipgloss.Style
	Card         lipgloss.Style
	SelectedCard lipgloss.Style

	MutedText   lipgloss.Style
	PrimaryBold lipgloss.Style
	SuccessText lipgloss.Style
	ErrorText   lipgloss.Style
	Notice      lipgloss.Style
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},

		Completed:  lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		InProgress: lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Danger:     lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},

		Video:    lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		External: lipgloss.AdaptiveColor{Light: "#2684FF", Dark: "#4C9AFF"},
		Guided:   lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Card = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	t.SelectedCard = t.Card.BorderForeground(t.Primary)

	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.SuccessText = r.NewStyle().Foreground(t.Completed)
	t.ErrorText = r.NewStyle().Foreground(t.Danger).Bold(true)
	t.Notice = r.NewStyle().Foreground(ThemeFg("#F1FA8C"))

	return t
}

// LessonBadge returns the short label and color for a lesson type.
func (t Theme) LessonBadge(typ catalog.LessonType) (string, lipgloss.AdaptiveColor) {
	switch typ {
	case catalog.TypeVideo:
		return "VIDEO", t.Video
	case catalog.TypeExternal:
		return "LINK", t.External
	case catalog.TypeGuided:
		return "GUIDED", t.Guided
	default:
		return "?", t.Subtext
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
