package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders lesson text through glamour, rebuilding the
// underlying renderer only when the wrap width changes.
type MarkdownRenderer struct {
	mu       sync.Mutex
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer returns a renderer wrapping at width.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	r := &MarkdownRenderer{}
	r.SetWidth(width)
	return r
}

// SetWidth changes the wrap width.
func (r *MarkdownRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.width && r.renderer != nil {
		return
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r.renderer = nil
	} else {
		r.renderer = tr
	}
	r.width = width
}

// Render returns md as styled terminal text. If glamour fails the raw
// markdown is returned so the page is still readable.
func (r *MarkdownRenderer) Render(md string) string {
	r.mu.Lock()
	tr := r.renderer
	r.mu.Unlock()

	if tr == nil {
		return md
	}
	out, err := tr.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
