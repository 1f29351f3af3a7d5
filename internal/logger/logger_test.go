package logger

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestPlainFormatterOrdersFields(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    ts,
		Level:   logrus.WarnLevel,
		Message: "dropped stale result",
		Data: logrus.Fields{
			"component": "dispatch",
			"caller":    "x.go:9",
			"kind":      "chat",
			"epoch":     2,
		},
	}
	out, err := (PlainFormatter{}).Format(entry)
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	want := "x.go:9 [2025-03-04T05:06:07Z] [WARNING] [dispatch] dropped stale result epoch=2 kind=chat\n"
	if string(out) != want {
		t.Fatalf("unexpected line:\nwant %q\ngot  %q", want, string(out))
	}
}

func TestNamedWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	Named("jobs").Info("rewrite succeeded")
	if got := buf.String(); !strings.Contains(got, "[jobs] rewrite succeeded") {
		t.Fatalf("component missing from %q", got)
	}
}

func TestSetupFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	closer, resolved, err := SetupFile(path)
	if err != nil {
		t.Fatalf("SetupFile: %v", err)
	}
	t.Cleanup(func() {
		SetOutput(nil)
		_ = closer.Close()
	})
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
}

func TestTrimSourcePath(t *testing.T) {
	cases := map[string]string{
		"/home/u/src/promptune/internal/tui/model.go": "internal/tui/model.go",
		"/home/u/src/promptune/cmd/promptune/main.go": "cmd/promptune/main.go",
		"/tmp/other.go": "other.go",
	}
	for in, want := range cases {
		if got := trimSourcePath(in); got != want {
			t.Fatalf("trimSourcePath(%q) = %q, want %q", in, got, want)
		}
	}
}
