package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/csheth/promptune/internal/refine"
)

// OpenAIOptions configures the chat completion client. BaseURL defaults to
// the SDK's; point it at OpenRouter or a local gateway as needed.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAICompleter implements Completer with openai-go.
type OpenAICompleter struct {
	api   *openai.Client
	model string
}

var _ Completer = (*OpenAICompleter)(nil)

func NewOpenAICompleter(opts OpenAIOptions) (*OpenAICompleter, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("missing API key (set OPENROUTER_API_KEY or [server].api_key)")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("missing model name")
	}
	cfg := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg = append(cfg, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	client := openai.NewClient(cfg...)
	return &OpenAICompleter{api: &client, model: opts.Model}, nil
}

func (c *OpenAICompleter) Name() string {
	return fmt.Sprintf("openai-compatible (%s)", c.model)
}

func (c *OpenAICompleter) Complete(ctx context.Context, system string, messages []refine.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: toChatMessages(system, messages),
	}
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", wrapHTTPError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func toChatMessages(system string, msgs []refine.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if strings.TrimSpace(system) != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, msg := range msgs {
		if msg.Role == refine.RoleAssistant {
			out = append(out, openai.AssistantMessage(msg.Content))
			continue
		}
		out = append(out, openai.UserMessage(msg.Content))
	}
	return out
}

func wrapHTTPError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		if raw := strings.TrimSpace(apiErr.RawJSON()); raw != "" {
			return fmt.Errorf("http_%d: %s", apiErr.StatusCode, raw)
		}
		return fmt.Errorf("http_%d: %w", apiErr.StatusCode, err)
	}
	return err
}
