package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	defaultComposerHeight = 3
	minTranscriptHeight   = 4
	// header, composer label and help, session meter, and the blank lines
	// joinNonEmpty puts between them.
	pageChrome = 10
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	composerHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		composerHeight: defaultComposerHeight,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	l.composerHeight = defaultComposerHeight
	if height > 0 && height < 20 {
		l.composerHeight = 1
	}
}

// transcriptHeight is what remains for the transcript once reserved lines
// (suggestion card, status line, help) are accounted for.
func (l pageLayout) transcriptHeight(reserved int) int {
	if l.windowHeight <= 0 {
		return 20
	}
	usable := l.windowHeight - pageChrome - l.composerHeight - reserved
	if usable < minTranscriptHeight {
		usable = minTranscriptHeight
	}
	return usable
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

// previewText flattens value to one line and truncates it to width cells.
func previewText(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 {
		return value
	}
	return runewidth.Truncate(value, width, "…")
}
