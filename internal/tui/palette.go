package tui

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/csheth/promptune/internal/refine"
)

type paletteAction int

const (
	actionClearChat paletteAction = iota
	actionPickSpecific
	actionPickCreative
	actionPickFormal
	actionCopyReply
	actionSaveTranscript
	actionToggleHelp
	actionQuit
)

type paletteCommand struct {
	action      paletteAction
	title       string
	shortcut    string
	description string
}

var paletteCommands = []paletteCommand{
	{action: actionClearChat, title: "Clear chat", shortcut: "ctrl+l", description: "Start over with only the greeting."},
	{action: actionPickSpecific, title: "Send specific rewrite", shortcut: "alt+1", description: "Send the more specific rewrite to chat."},
	{action: actionPickCreative, title: "Send creative rewrite", shortcut: "alt+2", description: "Send the more creative rewrite to chat."},
	{action: actionPickFormal, title: "Send formal rewrite", shortcut: "alt+3", description: "Send the formal rewrite to chat."},
	{action: actionCopyReply, title: "Copy last reply", shortcut: "ctrl+y", description: "Copy the newest assistant message to the clipboard."},
	{action: actionSaveTranscript, title: "Save transcript", shortcut: "ctrl+s", description: "Append this conversation to the transcript archive."},
	{action: actionToggleHelp, title: "Toggle help", shortcut: "f1", description: "Show or hide the key cheatsheet."},
	{action: actionQuit, title: "Quit", shortcut: "ctrl+c", description: "Leave PrompTune."},
}

// paletteSource adapts a command slice for fuzzy matching on titles.
type paletteSource []paletteCommand

func (s paletteSource) String(i int) string { return s[i].title + " " + s[i].description }

func (s paletteSource) Len() int { return len(s) }

func (m *model) commandAvailable(action paletteAction) bool {
	switch action {
	case actionPickSpecific, actionPickCreative, actionPickFormal:
		if m.ctrl.Loading() {
			return false
		}
		set, ok := m.ctrl.Suggestions()
		return ok && strings.TrimSpace(set.Option(styleForAction(action))) != ""
	case actionCopyReply:
		_, ok := m.ctrl.LastReply()
		return ok
	case actionSaveTranscript:
		return m.config.ArchivePath != ""
	default:
		return true
	}
}

func styleForAction(action paletteAction) refine.Style {
	switch action {
	case actionPickCreative:
		return refine.StyleCreative
	case actionPickFormal:
		return refine.StyleFormal
	default:
		return refine.StyleSpecific
	}
}

func (m *model) availableCommands() []paletteCommand {
	out := make([]paletteCommand, 0, len(paletteCommands))
	for _, cmd := range paletteCommands {
		if m.commandAvailable(cmd.action) {
			out = append(out, cmd)
		}
	}
	return out
}

// filterPalette ranks available commands against query. An empty query keeps
// the declared order.
func (m *model) filterPalette(query string) []paletteCommand {
	available := m.availableCommands()
	query = strings.TrimSpace(query)
	if query == "" {
		return available
	}
	matches := fuzzy.FindFrom(query, paletteSource(available))
	out := make([]paletteCommand, 0, len(matches))
	for _, match := range matches {
		out = append(out, available[match.Index])
	}
	return out
}

func (m *model) openPalette() {
	m.paletteInput.SetValue("")
	m.paletteInput.Focus()
	m.paletteMatches = m.filterPalette("")
	m.paletteCursor = 0
	m.focus = focusPalette
}

func (m *model) closePalette() {
	m.paletteInput.Blur()
	m.paletteMatches = nil
	m.focus = focusComposer
}

func (m *model) refreshPalette() {
	m.paletteMatches = m.filterPalette(m.paletteInput.Value())
	if m.paletteCursor >= len(m.paletteMatches) {
		m.paletteCursor = len(m.paletteMatches) - 1
	}
	if m.paletteCursor < 0 {
		m.paletteCursor = 0
	}
}
