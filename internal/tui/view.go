package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/promptune/internal/refine"
)

func (m *model) View() string {
	if notice := m.ctrl.Notice(); notice != "" {
		return m.alertView(notice)
	}
	if m.focus == focusPalette {
		return joinNonEmpty([]string{m.heroView(), m.paletteView(), m.sessionMeterView()})
	}

	card := m.suggestionCard()
	status := m.statusView()
	help := ""
	if m.helpVisible {
		help = m.keyLegendView()
	}
	reserved := 0
	for _, part := range []string{card, status, help} {
		if part != "" {
			reserved += lipgloss.Height(part) + 1
		}
	}
	if h := m.layout.transcriptHeight(reserved); h != m.viewport.Height {
		m.viewport.Height = h
		m.markViewportDirty()
	}
	m.refreshViewportIfDirty()

	return joinNonEmpty([]string{
		m.heroView(),
		m.viewport.View(),
		card,
		status,
		m.composerPanel(),
		m.sessionMeterView(),
		help,
	})
}

func (m *model) heroView() string {
	title := titleStyle.Render(appTitle)
	meta := taglineStyle.Render(heroTagline)
	if endpoint := m.endpoint(); endpoint != "" {
		meta += helperStyle.Render("  ·  " + endpoint)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, meta)
}

func (m *model) transcriptContent() string {
	cb := &contentBuilder{}
	wrap := m.wrapWidth(viewportHorizontalPadding)
	messages := m.ctrl.Messages()
	for idx, msg := range messages {
		switch msg.Role {
		case refine.RoleUser:
			cb.WriteString(userLabelStyle.Render("You"))
			cb.WriteRune('\n')
			body := msg.Content
			if strings.TrimSpace(body) == "" {
				cb.WriteString(helperStyle.Render("  (empty message)"))
			} else {
				cb.WriteString(indentMultiline(wordwrap.String(body, wrap), "  "))
			}
		default:
			cb.WriteString(assistantLabelStyle.Render("Assistant"))
			cb.WriteRune('\n')
			if msg.Content == refine.ChatFailureNotice {
				cb.WriteString("  " + errorStyle.Render(msg.Content))
			} else {
				cb.WriteString(m.markdown.Render(msg.Content))
			}
		}
		cb.WriteRune('\n')
		if idx < len(messages)-1 {
			cb.WriteRune('\n')
		}
	}
	if m.ctrl.Loading() {
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Waiting for a reply…", m.spinner.View())))
		cb.WriteRune('\n')
	}
	return cb.String()
}

func (m *model) suggestionCard() string {
	set, ok := m.ctrl.Suggestions()
	if !ok {
		if m.ctrl.SuggestionsPending() {
			return helperStyle.Render(fmt.Sprintf("%s Scoring your prompt…", m.spinner.View()))
		}
		return ""
	}
	inner := m.layout.viewportWidth - 4
	if inner < 20 {
		inner = 20
	}

	header := scoreStyle.Render(fmt.Sprintf("Score %s/10", formatScore(set.Score)))
	lines := []string{header}
	if set.Reason != "" {
		lines = append(lines, helperStyle.Render(wordwrap.String(set.Reason, inner)))
	}
	lines = append(lines, "")
	for i, style := range refine.Styles {
		label := fmt.Sprintf("%d %-9s", i+1, style.Label())
		text := set.Option(style)
		preview := previewText(text, inner-len(label)-3)
		if preview == "" {
			preview = helperStyle.Render("(none)")
		}
		row := label + preview
		if m.focus == focusPicker && m.pickerCursor == i {
			lines = append(lines, currentLineStyle.Render("▸ "+row))
			continue
		}
		lines = append(lines, "  "+row)
	}
	if set.Tip != "" {
		lines = append(lines, "", helperStyle.Render(wordwrap.String("Tip: "+set.Tip, inner)))
	}
	hint := "Enter sends your draft • Tab chooses a rewrite • Alt+1/2/3 sends one"
	if m.ctrl.Loading() {
		hint = "Waiting for the current reply before sending again."
	}
	lines = append(lines, helperStyle.Render(hint))
	return cardStyle.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func (m *model) composerPanel() string {
	label := "Prompt"
	if _, ok := m.ctrl.Suggestions(); ok {
		label = "Prompt (suggestions ready)"
	}
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render(label),
		m.composer.View() + "\n" + helperStyle.Render(m.composerHelpText()),
	})
}

func (m *model) composerHelpText() string {
	return "Enter: rewrite or send • Alt+Enter: new line • Ctrl+K: commands • F1: help • Ctrl+C: quit"
}

func (m *model) statusView() string {
	if m.status.text == "" {
		return ""
	}
	if m.status.isErr {
		return errorStyle.Render(m.status.text)
	}
	return successStyle.Render(m.status.text)
}

func (m *model) alertView(notice string) string {
	body := joinNonEmpty([]string{
		errorStyle.Bold(true).Render(notice),
		helperStyle.Render("Press Enter or Esc to dismiss."),
	})
	box := alertBoxStyle.Render(body)
	if m.layout.windowWidth <= 0 || m.layout.windowHeight <= 0 {
		return box
	}
	return lipgloss.Place(m.layout.windowWidth, m.layout.windowHeight, lipgloss.Center, lipgloss.Center, box)
}

func (m *model) paletteView() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Command Palette"))
	b.WriteRune('\n')
	b.WriteString(m.paletteInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Enter to run, Esc to cancel."))
	b.WriteRune('\n')
	b.WriteRune('\n')
	if len(m.paletteMatches) == 0 {
		b.WriteString(helperStyle.Render("No commands match this filter."))
		return b.String()
	}
	descWidth := m.layout.viewportWidth - 6
	for idx, cmd := range m.paletteMatches {
		label := fmt.Sprintf("  %s  [%s]", cmd.title, cmd.shortcut)
		if idx == m.paletteCursor {
			label = currentLineStyle.Render("▸ " + cmd.title + "  [" + cmd.shortcut + "]")
		}
		b.WriteString(label)
		b.WriteRune('\n')
		b.WriteString(helperStyle.Render("   " + previewText(cmd.description, descWidth)))
		b.WriteRune('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) sessionMeterView() string {
	stats := []string{
		fmt.Sprintf("State %s", m.ctrl.State()),
		fmt.Sprintf("Messages %d", len(m.ctrl.Messages())),
		fmt.Sprintf("Idle %s", m.ctrl.IdleDelay()),
	}
	for _, kind := range []jobKind{jobKindRewrite, jobKindChat, jobKindArchive, jobKindCopy} {
		if n := m.tracker.Running(kind); n > 0 {
			stats = append(stats, badgeStyle.Render(fmt.Sprintf("%s×%d", kind, n)))
		}
	}
	if last := m.tracker.last; last != nil {
		outcome := last.Duration.Round(10 * time.Millisecond).String()
		if last.Status == jobStatusFailed {
			outcome = "failed"
		}
		stats = append(stats, fmt.Sprintf("Last %s %s", last.Kind, outcome))
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) keyLegendView() string {
	bindings := []key.Binding{
		m.keys.Send, m.keys.Newline, m.keys.FocusPicker,
		m.keys.PickSpecific, m.keys.PickCreative, m.keys.PickFormal,
		m.keys.Clear, m.keys.Copy, m.keys.Save,
		m.keys.Palette, m.keys.ScrollUp, m.keys.ScrollDown,
		m.keys.Help, m.keys.Quit,
	}
	rows := []string{sectionHeaderStyle.Render("Keys")}
	const columns = 3
	for i := 0; i < len(bindings); i += columns {
		end := i + columns
		if end > len(bindings) {
			end = len(bindings)
		}
		var cells []string
		for _, binding := range bindings[i:end] {
			h := binding.Help()
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render(h.Key), keyDescStyle.Render(" "+h.Desc)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return helpBoxStyle.Render(strings.Join(rows, "\n"))
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
