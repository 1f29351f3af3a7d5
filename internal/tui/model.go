package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/promptune/internal/archive"
	"github.com/csheth/promptune/internal/refine"
)

const (
	defaultIdleDelay      = 3 * time.Second
	defaultRequestTimeout = 2 * time.Minute
)

// Config wires runtime options into the TUI program.
type Config struct {
	Backend        Backend
	Greeting       string
	IdleDelay      time.Duration
	RequestTimeout time.Duration
	// ArchivePath is where Ctrl+S appends transcript snapshots. Empty disables saving.
	ArchivePath string
	// Draft pre-fills the composer.
	Draft     string
	Clipboard func(string) error
}

type keyMap struct {
	Send         key.Binding
	Newline      key.Binding
	Clear        key.Binding
	Copy         key.Binding
	Save         key.Binding
	Palette      key.Binding
	Help         key.Binding
	FocusPicker  key.Binding
	PickSpecific key.Binding
	PickCreative key.Binding
	PickFormal   key.Binding
	ScrollUp     key.Binding
	ScrollDown   key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "rewrite / send")),
		Newline:      key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("alt+enter", "new line")),
		Clear:        key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear chat")),
		Copy:         key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy last reply")),
		Save:         key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save transcript")),
		Palette:      key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "commands")),
		Help:         key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "toggle help")),
		FocusPicker:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "choose a rewrite")),
		PickSpecific: key.NewBinding(key.WithKeys("alt+1"), key.WithHelp("alt+1", "send specific")),
		PickCreative: key.NewBinding(key.WithKeys("alt+2"), key.WithHelp("alt+2", "send creative")),
		PickFormal:   key.NewBinding(key.WithKeys("alt+3"), key.WithHelp("alt+3", "send formal")),
		ScrollUp:     key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown:   key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit:         key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

type model struct {
	config  Config
	ctrl    *refine.Controller
	keys    keyMap
	jobs    *jobBus
	tracker jobTracker
	layout  pageLayout

	composer     textarea.Model
	paletteInput textinput.Model
	viewport     viewport.Model
	spinner      spinner.Model
	markdown     *markdownRenderer

	focus          focusArea
	pickerCursor   int
	paletteMatches []paletteCommand
	paletteCursor  int
	helpVisible    bool
	status         statusLine

	viewportDirty bool
	followTail    bool
	initEffects   []refine.Effect
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.IdleDelay <= 0 {
		config.IdleDelay = defaultIdleDelay
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaultRequestTimeout
	}
	if config.Clipboard == nil {
		config.Clipboard = clipboard.WriteAll
	}
	keys := defaultKeyMap()
	layout := newPageLayout()

	composer := textarea.New()
	composer.Placeholder = composerPlaceholder
	composer.ShowLineNumbers = false
	composer.CharLimit = 0
	composer.SetWidth(layout.viewportWidth)
	composer.SetHeight(layout.composerHeight)
	composer.KeyMap.InsertNewline = keys.Newline
	composer.Focus()

	paletteInput := textinput.New()
	paletteInput.Placeholder = "Filter commands…"
	paletteInput.CharLimit = 60
	paletteInput.Width = 50

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(layout.viewportWidth, 20)
	vp.MouseWheelEnabled = true

	m := &model{
		config:        config,
		ctrl:          refine.NewController(refine.Options{Greeting: config.Greeting, IdleDelay: config.IdleDelay}),
		keys:          keys,
		jobs:          newJobBus(),
		tracker:       newJobTracker(),
		layout:        layout,
		composer:      composer,
		paletteInput:  paletteInput,
		viewport:      vp,
		spinner:       spin,
		markdown:      newMarkdownRenderer(layout.viewportWidth - viewportHorizontalPadding),
		viewportDirty: true,
		followTail:    true,
	}
	if draft := config.Draft; strings.TrimSpace(draft) != "" {
		m.initEffects = m.ctrl.Edit(draft)
		m.composer.SetValue(draft)
	}
	return m
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if len(m.initEffects) > 0 {
		cmds = append(cmds, m.runEffects(m.initEffects))
		m.initEffects = nil
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.markViewportDirty()
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		m.tracker.started(msg.Snapshot)
		return m, nil
	case jobResultEnvelope:
		m.tracker.finished(msg.Snapshot)
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case idleFiredMsg:
		return m, m.runEffects(m.ctrl.IdleFired(msg.handle))
	case suggestionsMsg:
		m.ctrl.SuggestionsResolved(msg.ticket, msg.set, msg.err)
		m.pickerCursor = 0
		m.syncComposer()
		m.markViewportDirty()
		return m, nil
	case chatReplyMsg:
		m.ctrl.ChatResolved(msg.ticket, msg.reply, msg.err)
		m.followTail = true
		m.syncComposer()
		m.markViewportDirty()
		return m, nil
	case archiveResultMsg:
		if msg.err != nil {
			return m, m.setStatus(fmt.Sprintf("Saving transcript failed: %v", msg.err), true)
		}
		return m, m.setStatus(fmt.Sprintf("Saved transcript %s to %s", shortID(msg.id), msg.path), false)
	case clipboardResultMsg:
		if msg.err != nil {
			return m, m.setStatus(fmt.Sprintf("Copy failed: %v", msg.err), true)
		}
		return m, m.setStatus(fmt.Sprintf("Copied last reply (%d chars).", msg.chars), false)
	case statusExpiredMsg:
		if m.status.at.Equal(msg.at) {
			m.status = statusLine{}
		}
		return m, nil
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	// The notification overlay swallows input until dismissed.
	if m.ctrl.Notice() != "" {
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc {
			m.ctrl.DismissNotice()
			m.syncComposer()
		}
		return m, nil
	}
	if m.focus == focusPalette {
		return m.handlePaletteKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Palette):
		m.openPalette()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Help):
		return m, m.runAction(actionToggleHelp)
	case key.Matches(msg, m.keys.Clear):
		return m, m.runAction(actionClearChat)
	case key.Matches(msg, m.keys.Copy):
		return m, m.runAction(actionCopyReply)
	case key.Matches(msg, m.keys.Save):
		return m, m.runAction(actionSaveTranscript)
	case key.Matches(msg, m.keys.PickSpecific):
		return m, m.pick(refine.StyleSpecific)
	case key.Matches(msg, m.keys.PickCreative):
		return m, m.pick(refine.StyleCreative)
	case key.Matches(msg, m.keys.PickFormal):
		return m, m.pick(refine.StyleFormal)
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusPicker {
		if cmd, handled := m.handlePickerKey(msg); handled {
			return m, cmd
		}
	}
	if key.Matches(msg, m.keys.FocusPicker) {
		if _, ok := m.ctrl.Suggestions(); ok {
			m.focus = focusPicker
			m.composer.Blur()
		}
		return m, nil
	}
	cmd, _ := m.processComposerKey(msg)
	return m, cmd
}

// processComposerKey feeds a key to the composer and reports whether the
// key was consumed.
func (m *model) processComposerKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if !m.composer.Focused() {
		return nil, false
	}
	switch {
	case key.Matches(msg, m.keys.Send):
		return m.runEffects(m.ctrl.Submit()), true
	case msg.Type == tea.KeyEsc:
		if m.composer.Value() == "" {
			return nil, true
		}
		m.composer.SetValue("")
		return m.runEffects(m.ctrl.Edit("")), true
	}

	before := m.composer.Value()
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	after := m.composer.Value()
	if after == before {
		return cmd, true
	}
	return tea.Batch(cmd, m.runEffects(m.ctrl.Edit(after))), true
}

func (m *model) handlePickerKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "up", "k", "shift+tab":
		m.pickerCursor = (m.pickerCursor + len(refine.Styles) - 1) % len(refine.Styles)
		return nil, true
	case "down", "j":
		m.pickerCursor = (m.pickerCursor + 1) % len(refine.Styles)
		return nil, true
	case "1", "2", "3":
		m.pickerCursor = int(msg.Runes[0] - '1')
		return m.pick(refine.Styles[m.pickerCursor]), true
	case "enter":
		return m.pick(refine.Styles[m.pickerCursor]), true
	case "esc", "tab":
		m.focusComposer()
		return nil, true
	}
	// Anything else goes back to typing.
	m.focusComposer()
	return nil, false
}

func (m *model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+k":
		m.closePalette()
		m.focusComposer()
		return m, nil
	case "up", "ctrl+p":
		if m.paletteCursor > 0 {
			m.paletteCursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.paletteCursor < len(m.paletteMatches)-1 {
			m.paletteCursor++
		}
		return m, nil
	case "enter":
		if len(m.paletteMatches) == 0 {
			return m, nil
		}
		action := m.paletteMatches[m.paletteCursor].action
		m.closePalette()
		m.focusComposer()
		return m, m.runAction(action)
	}
	var cmd tea.Cmd
	m.paletteInput, cmd = m.paletteInput.Update(msg)
	m.refreshPalette()
	return m, cmd
}

func (m *model) runAction(action paletteAction) tea.Cmd {
	switch action {
	case actionClearChat:
		m.ctrl.Clear()
		m.focusComposer()
		m.followTail = true
		m.syncComposer()
		m.markViewportDirty()
		return m.setStatus("Chat cleared.", false)
	case actionPickSpecific, actionPickCreative, actionPickFormal:
		return m.pick(styleForAction(action))
	case actionCopyReply:
		reply, ok := m.ctrl.LastReply()
		if !ok {
			return m.setStatus("Nothing to copy yet.", true)
		}
		return m.jobs.Start(jobKindCopy, copyJob(m.config.Clipboard, reply))
	case actionSaveTranscript:
		if m.config.ArchivePath == "" {
			return m.setStatus("Transcript archive is disabled.", true)
		}
		var live *refine.SuggestionSet
		if set, ok := m.ctrl.Suggestions(); ok {
			live = &set
		}
		snapshot := archive.NewSnapshot(m.endpoint(), m.ctrl.Messages(), live)
		return m.jobs.Start(jobKindArchive, archiveJob(m.config.ArchivePath, snapshot))
	case actionToggleHelp:
		m.helpVisible = !m.helpVisible
		return nil
	case actionQuit:
		return tea.Quit
	}
	return nil
}

func (m *model) pick(style refine.Style) tea.Cmd {
	effects := m.ctrl.Pick(style)
	if len(effects) == 0 {
		return nil
	}
	m.focusComposer()
	m.followTail = true
	return m.runEffects(effects)
}

func (m *model) focusComposer() {
	m.focus = focusComposer
	m.composer.Focus()
}

// syncComposer makes the composer reflect the controller's draft and mode.
func (m *model) syncComposer() {
	if m.composer.Value() != m.ctrl.Draft() {
		m.composer.SetValue(m.ctrl.Draft())
	}
	if _, ok := m.ctrl.Suggestions(); ok {
		m.composer.Placeholder = composerEditPlaceholder
		return
	}
	m.composer.Placeholder = composerPlaceholder
	if m.focus == focusPicker {
		m.focusComposer()
	}
}

func (m *model) busy() bool {
	return m.ctrl.Loading() || m.ctrl.SuggestionsPending()
}

func (m *model) endpoint() string {
	if m.config.Backend == nil {
		return ""
	}
	return m.config.Backend.Endpoint()
}

// setStatus shows text in the footer and schedules its expiry.
func (m *model) setStatus(text string, isErr bool) tea.Cmd {
	at := time.Now()
	m.status = statusLine{text: text, isErr: isErr, at: at}
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return statusExpiredMsg{at: at}
	})
}

func (m *model) resize(width, height int) {
	m.layout.Update(width, height)
	m.viewport.Width = m.layout.viewportWidth
	m.composer.SetWidth(m.layout.viewportWidth)
	m.paletteInput.Width = m.layout.viewportWidth - 4
	m.markdown.SetWidth(m.layout.viewportWidth - viewportHorizontalPadding)
	m.followTail = true
	m.markViewportDirty()
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if !m.viewportDirty {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.transcriptContent())
	if atBottom || m.followTail {
		m.viewport.GotoBottom()
	}
	m.followTail = false
	m.viewportDirty = false
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
