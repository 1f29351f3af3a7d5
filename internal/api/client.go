package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/csheth/promptune/internal/logger"
	"github.com/csheth/promptune/internal/refine"
)

const (
	defaultEndpoint    = "http://localhost:8000"
	defaultHTTPTimeout = 2 * time.Minute
	maxErrorBodyBytes  = 512
)

// Config describes how to reach the rewrite and chat endpoints.
type Config struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to POST /rewrite and POST /chat.
type Client struct {
	base   string
	client *http.Client
}

// TransportError covers everything short of a well-formed reply: dial
// failures, HTTP error statuses without an {error} body, undecodable JSON.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError is an {"error": "..."} reply from either endpoint.
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ApplicationMessage exposes the server supplied text for user notices.
func (e *ApplicationError) ApplicationMessage() string { return e.Message }

func New(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if base == "" {
		base = defaultEndpoint
	}
	return &Client{base: base, client: pickHTTPClient(cfg.HTTPClient, cfg.Timeout)}
}

func pickHTTPClient(custom *http.Client, timeout time.Duration) *http.Client {
	if custom != nil {
		return custom
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string { return c.base }

type rewriteRequest struct {
	Prompt string `json:"prompt"`
}

// rewriteReply accepts the score as a JSON number or a numeric string.
type rewriteReply struct {
	Score    json.Number `json:"score"`
	Reason   string      `json:"reason"`
	Specific string      `json:"specific"`
	Creative string      `json:"creative"`
	Formal   string      `json:"formal"`
	Tip      string      `json:"tip"`
	Error    string      `json:"error,omitempty"`
}

func (r rewriteReply) suggestionSet() (refine.SuggestionSet, error) {
	set := refine.SuggestionSet{
		Reason:   r.Reason,
		Specific: r.Specific,
		Creative: r.Creative,
		Formal:   r.Formal,
		Tip:      r.Tip,
	}
	if r.Score == "" {
		return set, nil
	}
	score, err := r.Score.Float64()
	if err != nil {
		return refine.SuggestionSet{}, fmt.Errorf("invalid score %q", r.Score.String())
	}
	set.Score = score
	return set, nil
}

// Rewrite asks the backend for scored rewrites of prompt.
func (c *Client) Rewrite(ctx context.Context, prompt string) (refine.SuggestionSet, error) {
	var reply rewriteReply
	status, err := c.post(ctx, "/rewrite", rewriteRequest{Prompt: prompt}, &reply)
	if err != nil {
		return refine.SuggestionSet{}, err
	}
	if reply.Error != "" {
		return refine.SuggestionSet{}, &ApplicationError{Op: "rewrite", Message: reply.Error}
	}
	if status >= 400 {
		return refine.SuggestionSet{}, &TransportError{Op: "rewrite", Status: status, Err: fmt.Errorf("unexpected status")}
	}
	set, err := reply.suggestionSet()
	if err != nil {
		return refine.SuggestionSet{}, &TransportError{Op: "rewrite", Status: status, Err: err}
	}
	return set, nil
}

type chatRequest struct {
	Messages []refine.Message `json:"messages"`
}

type chatReply struct {
	Response *string `json:"response"`
	Error    string  `json:"error,omitempty"`
}

// Chat sends the whole transcript and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, messages []refine.Message) (string, error) {
	var reply chatReply
	status, err := c.post(ctx, "/chat", chatRequest{Messages: messages}, &reply)
	if err != nil {
		return "", err
	}
	if reply.Error != "" {
		return "", &ApplicationError{Op: "chat", Message: reply.Error}
	}
	if status >= 400 {
		return "", &TransportError{Op: "chat", Status: status, Err: fmt.Errorf("unexpected status")}
	}
	if reply.Response == nil {
		return "", &TransportError{Op: "chat", Err: fmt.Errorf("reply missing response field")}
	}
	return *reply.Response, nil
}

// post sends payload as JSON and decodes the reply into out. A decodable body
// is returned even for error statuses so callers can surface {error} replies.
func (c *Client) post(ctx context.Context, path string, payload, out any) (int, error) {
	op := strings.TrimPrefix(path, "/")
	log := logger.Named("api").WithFields(logger.Fields{"op": op, "request_id": uuid.NewString()})

	buf, err := json.Marshal(payload)
	if err != nil {
		return 0, &TransportError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return 0, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return 0, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}
	log.WithFields(logger.Fields{"status": resp.StatusCode, "duration": time.Since(started)}).Debug("response received")

	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode >= 400 {
			return resp.StatusCode, &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", clip(body))}
		}
		return resp.StatusCode, &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode reply: %w", err)}
	}
	return resp.StatusCode, nil
}

func clip(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBodyBytes {
		text = text[:maxErrorBodyBytes] + "…"
	}
	if text == "" {
		return "empty body"
	}
	return text
}
