package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/csheth/promptune/internal/tuitest"
)

type recordedServer struct {
	mu    sync.Mutex
	paths []string
}

func (s *recordedServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.paths = append(s.paths, r.URL.Path)
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rewrite":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"score": 6, "reason": "too short", "specific": "Say hi to the team",
				"creative": "Wave hello", "formal": "Greetings", "tip": "Add context",
			})
		case "/chat":
			_ = json.NewEncoder(w).Encode(map[string]string{"response": "Hello back"})
		default:
			http.NotFound(w, r)
		}
	})
}

func (s *recordedServer) saw(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.paths {
		if p == path {
			return true
		}
	}
	return false
}

func TestPrompTuneScoresAndSends(t *testing.T) {
	t.Parallel()

	srv := &recordedServer{}
	backend := httptest.NewServer(srv.handler())
	defer backend.Close()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	home := t.TempDir()

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{
			binary, "--no-alt-screen",
			"--config", filepath.Join(home, "config.toml"),
			"--log-file", filepath.Join(home, "promptune.log"),
			"--endpoint", backend.URL,
			"--idle-delay", "200ms",
		},
		Dir:    cmdDir,
		Env:    []string{"HOME=" + home, "PROMPTUNE_CACHE_DIR=" + filepath.Join(home, "cache")},
		Width:  100,
		Height: 40,
		Steps: []tuitest.Step{
			tuitest.Pause(time.Second),
			tuitest.Type("hi"),
			tuitest.Pause(1500 * time.Millisecond),
			tuitest.Press(0, tuitest.KeyAlt('1')),
			tuitest.Pause(1500 * time.Millisecond),
			tuitest.Press(0, tuitest.KeyCtrlC),
		},
		Timeout:        15 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	out := rec.PlainOutput()
	for _, want := range []string{"PrompTune", "Score 6/10", "Say hi to the team", "back"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if !srv.saw("/rewrite") || !srv.saw("/chat") {
		t.Fatalf("expected both endpoints to be called, saw %v", srv.paths)
	}
}

func TestRootCmdRejectsBadEndpoint(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.toml"), "--endpoint", "ftp://example.com"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "http or https") {
		t.Fatalf("expected endpoint validation error, got %v", err)
	}
}

func TestRootCmdRejectsNonPositiveIdleDelay(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.toml"), "--idle-delay", "0s"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "idle_delay") {
		t.Fatalf("expected idle delay error, got %v", err)
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	name := "promptune-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(t.TempDir(), name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}
