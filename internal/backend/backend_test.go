package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/csheth/promptune/internal/refine"
)

type fakeCompleter struct {
	reply    string
	err      error
	system   string
	messages []refine.Message
}

func (f *fakeCompleter) Complete(_ context.Context, system string, messages []refine.Message) (string, error) {
	f.system = system
	f.messages = append([]refine.Message(nil), messages...)
	return f.reply, f.err
}

func (f *fakeCompleter) Name() string { return "fake" }

func TestParseSuggestionSet(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		score   float64
		wantErr bool
	}{
		{name: "bare object", raw: `{"score":6,"reason":"vague","specific":"S","creative":"C","formal":"F","tip":"T"}`, score: 6},
		{name: "fenced", raw: "```json\n{\"score\":7.5,\"reason\":\"ok\",\"specific\":\"S\",\"creative\":\"C\",\"formal\":\"F\",\"tip\":\"T\"}\n```", score: 7.5},
		{name: "prose around", raw: `Sure! Here you go: {"score":"4","reason":"r","specific":"S","creative":"","formal":"","tip":""} Hope it helps.`, score: 4},
		{name: "clamped", raw: `{"score":14,"specific":"S"}`, score: 10},
		{name: "no rewrites", raw: `{"score":3,"reason":"r"}`, wantErr: true},
		{name: "missing score", raw: `{"specific":"S"}`, wantErr: true},
		{name: "not json", raw: "I cannot help with that.", wantErr: true},
		{name: "empty", raw: "  ", wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			set, err := parseSuggestionSet(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %#v", set)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if set.Score != tc.score || set.Specific != "S" {
				t.Fatalf("unexpected set %#v", set)
			}
		})
	}
}

func TestServiceRewriteBuildsPrompt(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{reply: `{"score":6,"reason":"vague","specific":"S","creative":"C","formal":"F","tip":"T"}`}
	svc := NewService(fake, "")
	set, err := svc.Rewrite(context.Background(), "  tell me about go  ")
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if set.Reason != "vague" {
		t.Fatalf("unexpected set %#v", set)
	}
	if fake.system != rewriteSystemPrompt {
		t.Fatalf("unexpected system prompt %q", fake.system)
	}
	if len(fake.messages) != 1 || !strings.Contains(fake.messages[0].Content, "\"\"\"\ntell me about go\n\"\"\"") {
		t.Fatalf("prompt not embedded: %#v", fake.messages)
	}

	if _, err := svc.Rewrite(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank prompt")
	}
}

func TestServiceChat(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{reply: "  Hi there  "}
	svc := NewService(fake, "be brief")
	reply, err := svc.Chat(context.Background(), []refine.Message{
		{Role: refine.RoleAssistant, Content: "hello"},
		{Role: refine.RoleUser, Content: "question"},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != "Hi there" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if fake.system != "be brief" || len(fake.messages) != 2 {
		t.Fatalf("unexpected completion input: %q %#v", fake.system, fake.messages)
	}

	fake.reply = ""
	if reply, _ := svc.Chat(context.Background(), fake.messages); reply == "" {
		t.Fatal("empty completion should fall back to a notice")
	}
	if _, err := svc.Chat(context.Background(), []refine.Message{{Role: "system", Content: "x"}}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected invalid request for unsupported role, got %v", err)
	}
	if _, err := svc.Chat(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty conversation")
	}
}

func TestHandlerRewrite(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{reply: `{"score":6,"reason":"vague","specific":"S","creative":"C","formal":"F","tip":"T"}`}
	server := httptest.NewServer(Handler(NewService(fake, "")))
	defer server.Close()

	resp, err := http.Post(server.URL+"/rewrite", "application/json", strings.NewReader(`{"prompt":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
	var set refine.SuggestionSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		t.Fatal(err)
	}
	if set.Score != 6 || set.Formal != "F" {
		t.Fatalf("unexpected body %#v", set)
	}
}

func TestHandlerErrorsUseErrorPayload(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{err: errors.New("rate limited")}
	server := httptest.NewServer(Handler(NewService(fake, "")))
	defer server.Close()

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{name: "upstream failure", method: http.MethodPost, path: "/chat", body: `{"messages":[{"role":"user","content":"q"}]}`, status: http.StatusBadGateway, want: "rate limited"},
		{name: "bad json", method: http.MethodPost, path: "/rewrite", body: `{`, status: http.StatusBadRequest, want: "invalid JSON body"},
		{name: "blank prompt", method: http.MethodPost, path: "/rewrite", body: `{"prompt":"   "}`, status: http.StatusBadRequest, want: "prompt cannot be empty"},
		{name: "empty conversation", method: http.MethodPost, path: "/chat", body: `{"messages":[]}`, status: http.StatusBadRequest, want: "messages cannot be empty"},
		{name: "system role", method: http.MethodPost, path: "/chat", body: `{"messages":[{"role":"system","content":"x"}]}`, status: http.StatusBadRequest, want: "unsupported role"},
		{name: "wrong method", method: http.MethodGet, path: "/chat", status: http.StatusMethodNotAllowed, want: "method not allowed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, server.URL+tc.path, strings.NewReader(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
			var payload errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(payload.Error, tc.want) {
				t.Fatalf("expected error containing %q, got %q", tc.want, payload.Error)
			}
		})
	}
}

func TestOpenAICompleterAgainstCompatibleServer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		if payload.Model != "test-model" || len(payload.Messages) != 3 || payload.Messages[0].Role != "system" {
			t.Errorf("unexpected payload %#v", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"test-model","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" pong "}}]}`))
	}))
	defer server.Close()

	completer, err := NewOpenAICompleter(OpenAIOptions{APIKey: "sk-test", BaseURL: server.URL + "/v1", Model: "test-model"})
	if err != nil {
		t.Fatal(err)
	}
	reply, err := completer.Complete(context.Background(), "sys", []refine.Message{
		{Role: refine.RoleAssistant, Content: "hello"},
		{Role: refine.RoleUser, Content: "ping"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "pong" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if name := completer.Name(); !strings.Contains(name, "test-model") {
		t.Fatalf("name should mention the model, got %q", name)
	}
}

func TestNewOpenAICompleterRequiresKeyAndModel(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAICompleter(OpenAIOptions{Model: "m"}); err == nil {
		t.Fatal("expected missing key error")
	}
	if _, err := NewOpenAICompleter(OpenAIOptions{APIKey: "k"}); err == nil {
		t.Fatal("expected missing model error")
	}
}

func TestClipText(t *testing.T) {
	t.Parallel()

	if got := clipText("short", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	got := clipText("alpha beta gamma", 12)
	if got != "alpha beta…" {
		t.Fatalf("expected word boundary clip, got %q", got)
	}

	// Multi-byte runes count once each.
	wide := strings.Repeat("é", 10)
	if got := clipText(wide, 10); got != wide {
		t.Fatalf("ten runes fit a ten rune limit, got %q", got)
	}
	if got := clipText(strings.Repeat("日", 20), 5); got != strings.Repeat("日", 5)+"…" {
		t.Fatalf("expected five runes, got %q", got)
	}
}
