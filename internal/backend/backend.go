// Package backend is a reference implementation of the /rewrite and /chat
// endpoints on top of any OpenAI compatible chat completion API.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/csheth/promptune/internal/refine"
)

// maxPromptRunes keeps a single rewrite request well inside small context windows.
const maxPromptRunes = 12_000

// ErrInvalidRequest marks failures caused by the caller's input rather than
// the upstream model.
var ErrInvalidRequest = errors.New("invalid request")

// Completer produces one assistant turn for a conversation. The system
// message, when present, comes first.
type Completer interface {
	Complete(ctx context.Context, system string, messages []refine.Message) (string, error)
	Name() string
}

// Service turns endpoint requests into completions.
type Service struct {
	completer Completer
	system    string
}

// NewService wraps completer. system is prepended to every chat request.
func NewService(completer Completer, system string) *Service {
	if strings.TrimSpace(system) == "" {
		system = defaultChatSystemPrompt
	}
	return &Service{completer: completer, system: system}
}

// Rewrite scores prompt and proposes three rewrites.
func (s *Service) Rewrite(ctx context.Context, prompt string) (refine.SuggestionSet, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return refine.SuggestionSet{}, fmt.Errorf("%w: prompt cannot be empty", ErrInvalidRequest)
	}
	raw, err := s.completer.Complete(ctx, rewriteSystemPrompt, []refine.Message{
		{Role: refine.RoleUser, Content: buildRewritePrompt(clipText(prompt, maxPromptRunes))},
	})
	if err != nil {
		return refine.SuggestionSet{}, fmt.Errorf("rewrite completion: %w", err)
	}
	return parseSuggestionSet(raw)
}

// Chat answers the last user message given the whole conversation.
func (s *Service) Chat(ctx context.Context, messages []refine.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: messages cannot be empty", ErrInvalidRequest)
	}
	cleaned := make([]refine.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case refine.RoleUser, refine.RoleAssistant:
			cleaned = append(cleaned, msg)
		default:
			return "", fmt.Errorf("%w: unsupported role %q", ErrInvalidRequest, msg.Role)
		}
	}
	reply, err := s.completer.Complete(ctx, s.system, cleaned)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "No meaningful response from the server.", nil
	}
	return reply, nil
}
