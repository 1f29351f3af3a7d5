package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/promptune/internal/logger"
)

// markdownRenderer renders assistant replies and memoizes the output per
// width, since the transcript is re-rendered on every spinner tick.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdownRenderer(width int) *markdownRenderer {
	r := &markdownRenderer{}
	r.SetWidth(width)
	return r
}

func (r *markdownRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == r.width && r.renderer != nil {
		return
	}
	r.width = width
	r.cache = map[string]string{}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logger.Named("tui").WithError(err).Warn("markdown renderer unavailable")
		r.renderer = nil
		return
	}
	r.renderer = renderer
}

// Render falls back to plain word wrapping when glamour fails.
func (r *markdownRenderer) Render(text string) string {
	if out, ok := r.cache[text]; ok {
		return out
	}
	out := ""
	if r.renderer != nil {
		rendered, err := r.renderer.Render(text)
		if err == nil {
			out = strings.Trim(rendered, "\n")
		}
	}
	if out == "" {
		out = wordwrap.String(text, r.width)
	}
	r.cache[text] = out
	return out
}
