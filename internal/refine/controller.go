package refine

import (
	"errors"
	"strings"
	"time"

	"github.com/csheth/promptune/internal/logger"
)

// ChatFailureNotice replaces the assistant reply when /chat fails for any reason.
const ChatFailureNotice = "❌ Failed to fetch response from GPT."

// RewriteTransportNotice is shown when /rewrite cannot be reached or decoded.
const RewriteTransportNotice = "Error connecting to /rewrite"

// State is the externally visible phase of the controller.
type State int

const (
	StateIdle State = iota
	StateSuggestionsPending
	StateSuggestionsReady
	StateSending
)

func (s State) String() string {
	switch s {
	case StateSuggestionsPending:
		return "suggesting"
	case StateSuggestionsReady:
		return "suggestions ready"
	case StateSending:
		return "sending"
	default:
		return "idle"
	}
}

// Ticket travels with every outbound request. A result is applied only when
// its ticket still matches the controller: Clear bumps Epoch, and every new
// request of the same kind bumps Gen.
type Ticket struct {
	Epoch uint64
	Gen   uint64
}

// Effect is work the controller asks its host to perform.
type Effect interface {
	effect()
}

// FetchSuggestions asks the host to POST /rewrite.
type FetchSuggestions struct {
	Ticket Ticket
	Prompt string
	Origin Origin
}

// SendChat asks the host to POST /chat with the full transcript.
type SendChat struct {
	Ticket   Ticket
	Messages []Message
}

// ScheduleIdle asks the host to call IdleFired(Handle) after Delay.
type ScheduleIdle struct {
	Handle TimerHandle
	Delay  time.Duration
}

func (FetchSuggestions) effect() {}
func (SendChat) effect()         {}
func (ScheduleIdle) effect()     {}

// Options configures a Controller.
type Options struct {
	Greeting  string
	IdleDelay time.Duration
}

// Controller is the dispatch state machine. It owns the transcript, the
// draft, the suggestion session, the idle timer and the loading flag; hosts
// feed it events and execute the effects it returns.
type Controller struct {
	transcript *Transcript
	timer      *IdleTimer
	session    Session

	draft   string
	held    string
	loading bool
	epoch   uint64
	chatGen uint64
	notice  string
}

func NewController(opts Options) *Controller {
	return &Controller{
		transcript: NewTranscript(opts.Greeting),
		timer:      NewIdleTimer(opts.IdleDelay),
	}
}

func (c *Controller) State() State {
	switch {
	case c.loading:
		return StateSending
	case c.session.live != nil:
		return StateSuggestionsReady
	case c.session.InFlight():
		return StateSuggestionsPending
	default:
		return StateIdle
	}
}

func (c *Controller) Draft() string { return c.draft }

func (c *Controller) Loading() bool { return c.loading }

func (c *Controller) Suggestions() (SuggestionSet, bool) { return c.session.Live() }

// SuggestionsPending reports whether a /rewrite result is still awaited.
func (c *Controller) SuggestionsPending() bool { return c.session.InFlight() }

func (c *Controller) Messages() []Message { return c.transcript.Messages() }

func (c *Controller) IdleDelay() time.Duration { return c.timer.Delay() }

// LastReply returns the newest assistant message, greeting included.
func (c *Controller) LastReply() (string, bool) {
	msg, ok := c.transcript.LastFrom(RoleAssistant)
	return msg.Content, ok
}

// Notice is the pending blocking notification, empty when none.
func (c *Controller) Notice() string { return c.notice }

func (c *Controller) DismissNotice() { c.notice = "" }

// Edit records a new draft value and re-arms the idle timer when it changed.
func (c *Controller) Edit(text string) []Effect {
	if text == c.draft {
		return nil
	}
	c.draft = text
	handle := c.timer.Arm()
	return []Effect{ScheduleIdle{Handle: handle, Delay: c.timer.Delay()}}
}

// IdleFired handles a scheduled idle callback.
func (c *Controller) IdleFired(handle TimerHandle) []Effect {
	if !c.timer.Fire(handle) {
		return nil
	}
	prompt := strings.TrimSpace(c.draft)
	if prompt == "" {
		return nil
	}
	if _, live := c.session.Live(); live && c.session.Prompt() == prompt {
		return nil
	}
	if inflight, ok := c.session.InFlightPrompt(); ok && inflight == prompt {
		return nil
	}
	return c.requestSuggestions(prompt, OriginIdle)
}

// Submit handles Enter or the send button. With live suggestions the draft
// goes to chat verbatim; otherwise a non-empty draft is sent for rewriting
// and cleared. Nothing happens while a chat reply is outstanding.
func (c *Controller) Submit() []Effect {
	if c.loading {
		return nil
	}
	if _, live := c.session.Live(); live {
		text := strings.TrimSpace(c.draft)
		c.draft = ""
		return c.dispatch(text)
	}
	prompt := strings.TrimSpace(c.draft)
	if prompt == "" {
		return nil
	}
	c.timer.CancelAll()
	c.held = c.draft
	c.draft = ""
	return c.requestSuggestions(prompt, OriginSubmit)
}

// Pick sends the rewrite of the given style to chat.
func (c *Controller) Pick(style Style) []Effect {
	if c.loading {
		return nil
	}
	set, live := c.session.Live()
	if !live {
		return nil
	}
	text := set.Option(style)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	c.draft = ""
	return c.dispatch(text)
}

// SuggestionsResolved applies a /rewrite outcome.
func (c *Controller) SuggestionsResolved(ticket Ticket, set SuggestionSet, err error) {
	log := logger.Named("dispatch").WithField("gen", ticket.Gen)
	if ticket.Epoch != c.epoch {
		log.Debug("dropping rewrite result from a cleared session")
		return
	}
	req, ok := c.session.Resolve(ticket.Gen)
	if !ok {
		log.Debug("dropping superseded rewrite result")
		return
	}
	if err != nil {
		log.WithError(err).Warn("rewrite failed")
		c.notice = rewriteNotice(err)
		if req.origin == OriginSubmit && c.draft == "" {
			c.draft = c.held
		}
		c.held = ""
		return
	}
	c.held = ""
	if req.origin == OriginIdle && strings.TrimSpace(c.draft) != req.prompt {
		log.Debug("dropping idle rewrite for a draft that has since changed")
		return
	}
	c.session.Install(req.prompt, set.Normalized())
}

// ChatResolved applies a /chat outcome.
func (c *Controller) ChatResolved(ticket Ticket, reply string, err error) {
	log := logger.Named("dispatch").WithField("gen", ticket.Gen)
	if ticket.Epoch != c.epoch || ticket.Gen != c.chatGen || !c.loading {
		log.Debug("dropping stale chat result")
		return
	}
	c.loading = false
	if err != nil {
		log.WithError(err).Warn("chat failed")
		c.transcript.Append(Message{Role: RoleAssistant, Content: ChatFailureNotice})
		return
	}
	c.transcript.Append(Message{Role: RoleAssistant, Content: reply})
}

// Clear resets the session to its initial state. Results of requests issued
// before the call are ignored when they arrive.
func (c *Controller) Clear() {
	c.epoch++
	c.transcript.Reset()
	c.draft = ""
	c.held = ""
	c.session.Clear()
	c.timer.CancelAll()
	c.loading = false
	c.notice = ""
}

func (c *Controller) requestSuggestions(prompt string, origin Origin) []Effect {
	gen := c.session.Begin(prompt, origin)
	return []Effect{FetchSuggestions{
		Ticket: Ticket{Epoch: c.epoch, Gen: gen},
		Prompt: prompt,
		Origin: origin,
	}}
}

func (c *Controller) dispatch(text string) []Effect {
	c.timer.CancelAll()
	c.session.Clear()
	c.held = ""
	c.transcript.Append(Message{Role: RoleUser, Content: text})
	c.loading = true
	c.chatGen++
	return []Effect{SendChat{
		Ticket:   Ticket{Epoch: c.epoch, Gen: c.chatGen},
		Messages: c.transcript.Messages(),
	}}
}

// applicationError is satisfied by errors that carry an {error: ...} payload.
type applicationError interface {
	error
	ApplicationMessage() string
}

func rewriteNotice(err error) string {
	var appErr applicationError
	if errors.As(err, &appErr) {
		return "Error: " + appErr.ApplicationMessage()
	}
	return RewriteTransportNotice
}
