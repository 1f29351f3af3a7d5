package backend

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/csheth/promptune/internal/refine"
)

const defaultChatSystemPrompt = "You are Tech Mini-GPT, a helpful assistant for technology questions. Answer clearly and concisely."

const rewriteSystemPrompt = "You are a prompt engineering reviewer. You reply with JSON only."

// clipText shortens text to at most limit runes, preferring a word boundary
// near the end.
func clipText(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)[:limit]
	cut := runes
	for i := len(runes) - 1; i > 0 && i > limit-64; i-- {
		if runes[i] == ' ' {
			cut = runes[:i]
			break
		}
	}
	return strings.TrimSpace(string(cut)) + "…"
}

func buildRewritePrompt(prompt string) string {
	return fmt.Sprintf(`Rate the following prompt for clarity and specificity on a scale of 0 to 10, explain the score in one sentence, then rewrite it three ways.

Return a JSON object with exactly these keys:
- "score": number from 0 to 10
- "reason": one sentence explaining the score
- "specific": the prompt rewritten to be more specific
- "creative": the prompt rewritten to invite a more creative answer
- "formal": the prompt rewritten in a formal register
- "tip": one short tip for writing better prompts

Prompt:
"""
%s
"""`, prompt)
}

// parseSuggestionSet accepts the bare object, a fenced block, or an object
// embedded in surrounding prose.
func parseSuggestionSet(raw string) (refine.SuggestionSet, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return refine.SuggestionSet{}, fmt.Errorf("empty rewrite response")
	}

	candidates := []string{raw}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			candidates = append(candidates, raw[start:end+1])
		}
	}

	for _, candidate := range candidates {
		var payload struct {
			Score    json.Number `json:"score"`
			Reason   string      `json:"reason"`
			Specific string      `json:"specific"`
			Creative string      `json:"creative"`
			Formal   string      `json:"formal"`
			Tip      string      `json:"tip"`
		}
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			continue
		}
		score, err := payload.Score.Float64()
		if err != nil {
			continue
		}
		set := refine.SuggestionSet{
			Score:    score,
			Reason:   payload.Reason,
			Specific: payload.Specific,
			Creative: payload.Creative,
			Formal:   payload.Formal,
			Tip:      payload.Tip,
		}.Normalized()
		if set.Specific == "" && set.Creative == "" && set.Formal == "" {
			continue
		}
		return set, nil
	}
	return refine.SuggestionSet{}, fmt.Errorf("unable to parse rewrite payload")
}
