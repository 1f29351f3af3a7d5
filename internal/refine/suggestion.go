package refine

import "strings"

// Style names one of the three rewrite variants.
type Style string

const (
	StyleSpecific Style = "specific"
	StyleCreative Style = "creative"
	StyleFormal   Style = "formal"
)

// Styles lists the variants in display order.
var Styles = []Style{StyleSpecific, StyleCreative, StyleFormal}

// Label is the human readable name of the style.
func (s Style) Label() string {
	switch s {
	case StyleSpecific:
		return "Specific"
	case StyleCreative:
		return "Creative"
	case StyleFormal:
		return "Formal"
	default:
		return string(s)
	}
}

// SuggestionSet is one scored rewrite proposal, shaped like the /rewrite reply.
type SuggestionSet struct {
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
	Specific string  `json:"specific"`
	Creative string  `json:"creative"`
	Formal   string  `json:"formal"`
	Tip      string  `json:"tip"`
}

// Option returns the rewrite text for style.
func (s SuggestionSet) Option(style Style) string {
	switch style {
	case StyleSpecific:
		return s.Specific
	case StyleCreative:
		return s.Creative
	case StyleFormal:
		return s.Formal
	default:
		return ""
	}
}

// Normalized clamps the score into 0..10 and trims every text field.
func (s SuggestionSet) Normalized() SuggestionSet {
	switch {
	case s.Score < 0:
		s.Score = 0
	case s.Score > 10:
		s.Score = 10
	}
	s.Reason = strings.TrimSpace(s.Reason)
	s.Specific = strings.TrimSpace(s.Specific)
	s.Creative = strings.TrimSpace(s.Creative)
	s.Formal = strings.TrimSpace(s.Formal)
	s.Tip = strings.TrimSpace(s.Tip)
	return s
}

// Origin records what triggered a suggestion request.
type Origin int

const (
	OriginSubmit Origin = iota
	OriginIdle
)

func (o Origin) String() string {
	if o == OriginIdle {
		return "idle"
	}
	return "submit"
}

type pendingRequest struct {
	gen    uint64
	prompt string
	origin Origin
}

// Session holds at most one live SuggestionSet and at most one request whose
// result may still be installed. Starting a request or clearing supersedes
// every earlier request.
type Session struct {
	live    *SuggestionSet
	prompt  string
	gen     uint64
	pending *pendingRequest
}

// Begin registers a new request for prompt and returns its generation.
func (s *Session) Begin(prompt string, origin Origin) uint64 {
	s.gen++
	s.pending = &pendingRequest{gen: s.gen, prompt: prompt, origin: origin}
	return s.gen
}

// Resolve consumes the pending request if gen is still current.
func (s *Session) Resolve(gen uint64) (pendingRequest, bool) {
	if s.pending == nil || s.pending.gen != gen {
		return pendingRequest{}, false
	}
	req := *s.pending
	s.pending = nil
	return req, true
}

// Install makes set the live suggestions for prompt, replacing any previous set.
func (s *Session) Install(prompt string, set SuggestionSet) {
	s.live = &set
	s.prompt = prompt
}

// Clear drops the live set and invalidates any in-flight request.
func (s *Session) Clear() {
	s.live = nil
	s.prompt = ""
	s.pending = nil
	s.gen++
}

func (s *Session) Live() (SuggestionSet, bool) {
	if s.live == nil {
		return SuggestionSet{}, false
	}
	return *s.live, true
}

// Prompt is the text the live set was produced for.
func (s *Session) Prompt() string {
	return s.prompt
}

func (s *Session) InFlight() bool {
	return s.pending != nil
}

// InFlightPrompt reports the prompt of the pending request, if any.
func (s *Session) InFlightPrompt() (string, bool) {
	if s.pending == nil {
		return "", false
	}
	return s.pending.prompt, true
}
