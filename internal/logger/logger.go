package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry and Fields alias the logrus types so callers only import this package.
type (
	Entry  = logrus.Entry
	Fields = logrus.Fields
)

// DefaultLogPath is used when neither the config nor the CLI names a log file.
const DefaultLogPath = "logs/promptune.log"

var root = logrus.New()

func init() {
	root.SetFormatter(PlainFormatter{})
	root.SetOutput(io.Discard)
}

// Configure sets the level and caller reporting for the shared logger.
func Configure(debug bool) {
	root.SetReportCaller(true)
	root.SetFormatter(PlainFormatter{})
	if debug {
		root.SetLevel(logrus.DebugLevel)
	} else {
		root.SetLevel(logrus.InfoLevel)
	}
}

// SetupFile points the shared logger at path, creating parent directories.
// The TUI owns stdout, so nothing is logged until this is called.
func SetupFile(path string) (io.Closer, string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultLogPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", err
	}
	root.SetOutput(f)
	return f, path, nil
}

// SetOutput redirects the shared logger; tests use it to capture lines.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	root.SetOutput(w)
}

// Named returns an entry tagged with the given component.
func Named(component string) *Entry {
	entry := logrus.NewEntry(root)
	if component != "" {
		entry = entry.WithField("component", component)
	}
	return entry
}

// PlainFormatter renders `caller [timestamp] [LEVEL] [component] message k=v`.
type PlainFormatter struct{}

// Format implements logrus.Formatter.
func (PlainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry == nil {
		return []byte{}, nil
	}
	parts := make([]string, 0, 6)
	if caller := callerOf(entry); caller != "" {
		parts = append(parts, caller)
	}
	parts = append(parts, fmt.Sprintf("[%s]", entry.Time.UTC().Format(time.RFC3339Nano)))
	parts = append(parts, fmt.Sprintf("[%s]", strings.ToUpper(entry.Level.String())))
	if component, ok := entry.Data["component"].(string); ok && component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	parts = append(parts, entry.Message)
	if fields := renderFields(entry.Data); fields != "" {
		parts = append(parts, fields)
	}
	return []byte(strings.Join(parts, " ") + "\n"), nil
}

func callerOf(entry *logrus.Entry) string {
	if entry.HasCaller() && entry.Caller != nil {
		return fmt.Sprintf("%s:%d", trimSourcePath(entry.Caller.File), entry.Caller.Line)
	}
	if caller, ok := entry.Data["caller"].(string); ok {
		return caller
	}
	return ""
}

func renderFields(data logrus.Fields) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "component" || k == "caller" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(pairs, " ")
}

func trimSourcePath(file string) string {
	file = filepath.ToSlash(file)
	for _, marker := range []string{"/internal/", "/cmd/"} {
		if idx := strings.Index(file, marker); idx != -1 {
			return file[idx+1:]
		}
	}
	return filepath.Base(file)
}
