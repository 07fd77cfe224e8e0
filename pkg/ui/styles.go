package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/museumhub/pkg/catalog"
)

// ══════════════════════════════════════════════════════════════════════════════
// DESIGN TOKENS
// ══════════════════════════════════════════════════════════════════════════════

const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
)

// Card geometry for the museum grid.
const (
	CardWidth    = 34
	CardMinWidth = 24
)

var (
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorBadgeText   = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
)

// RenderLessonBadge renders the lesson type as a colored label.
func RenderLessonBadge(typ catalog.LessonType, t Theme) string {
	label, bg := t.LessonBadge(typ)
	return t.Renderer.NewStyle().
		Foreground(ColorBadgeText).
		Background(bg).
		Bold(true).
		Padding(0, 1).
		Render(label)
}

// RenderCheck renders the completion mark, or padding of the same width.
func RenderCheck(done bool, t Theme) string {
	if !done {
		return " "
	}
	return t.SuccessText.Render("✓")
}

// RenderProgressBar renders done/total as a bar of the given width.
func RenderProgressBar(done, total, width int, t Theme) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}

	color := t.Secondary
	switch {
	case total > 0 && done >= total:
		color = t.Completed
	case done > 0:
		color = t.InProgress
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return t.Renderer.NewStyle().Foreground(color).Render(bar)
}

// RenderDivider renders a horizontal divider line.
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
