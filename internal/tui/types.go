package tui

import (
	"time"

	"github.com/csheth/promptune/internal/refine"
)

const appTitle = "PrompTune"

const heroTagline = "Sharpen a prompt, then send it."

const (
	composerPlaceholder     = "Type your prompt..."
	composerEditPlaceholder = "Edit or press Enter to send..."
)

// statusTTL is how long a footer status line stays visible.
const statusTTL = 5 * time.Second

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	optionPreviewLimit        = 160
)

// focusArea says which widget receives plain keys.
type focusArea int

const (
	focusComposer focusArea = iota
	focusPicker
	focusPalette
)

// idleFiredMsg is delivered when a scheduled idle timer elapses.
type idleFiredMsg struct {
	handle refine.TimerHandle
}

type suggestionsMsg struct {
	ticket refine.Ticket
	prompt string
	set    refine.SuggestionSet
	err    error
}

type chatReplyMsg struct {
	ticket refine.Ticket
	reply  string
	err    error
}

type archiveResultMsg struct {
	path string
	id   string
	err  error
}

type clipboardResultMsg struct {
	chars int
	err   error
}

// statusLine is a transient footer message. at identifies it so an expiry
// tick only clears the line it was scheduled for.
type statusLine struct {
	text  string
	isErr bool
	at    time.Time
}

type statusExpiredMsg struct {
	at time.Time
}
