package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/promptune/internal/archive"
	"github.com/csheth/promptune/internal/refine"
)

// Backend is the pair of endpoints the TUI talks to.
type Backend interface {
	Rewrite(ctx context.Context, prompt string) (refine.SuggestionSet, error)
	Chat(ctx context.Context, messages []refine.Message) (string, error)
	Endpoint() string
}

func rewriteJob(client Backend, timeout time.Duration, req refine.FetchSuggestions) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		set, err := client.Rewrite(ctx, req.Prompt)
		return suggestionsMsg{ticket: req.Ticket, prompt: req.Prompt, set: set, err: err}, err
	}
}

func chatJob(client Backend, timeout time.Duration, req refine.SendChat) jobRunner {
	messages := append([]refine.Message(nil), req.Messages...)
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		reply, err := client.Chat(ctx, messages)
		return chatReplyMsg{ticket: req.Ticket, reply: reply, err: err}, err
	}
}

func archiveJob(path string, snapshot archive.Snapshot) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		if err := archive.Save(path, snapshot); err != nil {
			return archiveResultMsg{path: path, err: err}, err
		}
		return archiveResultMsg{path: path, id: snapshot.ID}, nil
	}
}

func copyJob(write func(string) error, text string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		if err := write(text); err != nil {
			return clipboardResultMsg{err: err}, err
		}
		return clipboardResultMsg{chars: len([]rune(text))}, nil
	}
}

func idleTickCmd(effect refine.ScheduleIdle) tea.Cmd {
	handle := effect.Handle
	return tea.Tick(effect.Delay, func(time.Time) tea.Msg {
		return idleFiredMsg{handle: handle}
	})
}

// runEffects turns controller effects into commands.
func (m *model) runEffects(effects []refine.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, effect := range effects {
		switch e := effect.(type) {
		case refine.ScheduleIdle:
			cmds = append(cmds, idleTickCmd(e))
		case refine.FetchSuggestions:
			cmds = append(cmds, m.jobs.Start(jobKindRewrite, rewriteJob(m.config.Backend, m.config.RequestTimeout, e)), m.spinner.Tick)
		case refine.SendChat:
			cmds = append(cmds, m.jobs.Start(jobKindChat, chatJob(m.config.Backend, m.config.RequestTimeout, e)), m.spinner.Tick)
		}
	}
	m.syncComposer()
	m.markViewportDirty()
	return tea.Batch(cmds...)
}
