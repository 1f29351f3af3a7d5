// Package archive persists transcript snapshots to a JSON array on disk.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/csheth/promptune/internal/refine"
)

const entryTypeTranscript = "transcript"

// saveMu serializes read-modify-write cycles on archive files.
var saveMu sync.Mutex

type entryHeader struct {
	EntryType string `json:"entryType"`
}

// Snapshot captures the conversation at the moment the user saved it.
type Snapshot struct {
	EntryType   string                `json:"entryType"`
	ID          string                `json:"id"`
	CapturedAt  time.Time             `json:"capturedAt"`
	Endpoint    string                `json:"endpoint,omitempty"`
	Messages    []refine.Message      `json:"messages"`
	Suggestions *refine.SuggestionSet `json:"suggestions,omitempty"`
}

// NewSnapshot stamps messages with a fresh id and the current time.
func NewSnapshot(endpoint string, messages []refine.Message, live *refine.SuggestionSet) Snapshot {
	return Snapshot{
		EntryType:   entryTypeTranscript,
		ID:          uuid.NewString(),
		CapturedAt:  time.Now().UTC(),
		Endpoint:    endpoint,
		Messages:    append([]refine.Message(nil), messages...),
		Suggestions: live,
	}
}

// Save appends snapshot to the archive file, creating it if necessary.
func Save(path string, snapshot Snapshot) error {
	if path == "" {
		return errors.New("archive path is empty")
	}
	if snapshot.EntryType == "" {
		snapshot.EntryType = entryTypeTranscript
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	saveMu.Lock()
	defer saveMu.Unlock()
	entries, err := loadEntries(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		entries = nil
	}
	entries = append(entries, raw)
	return writeEntries(path, entries)
}

// Load returns every transcript snapshot stored at path, oldest first.
// Entries of other types are skipped.
func Load(path string) ([]Snapshot, error) {
	entries, err := loadEntries(path)
	if err != nil {
		return nil, err
	}
	snapshots := make([]Snapshot, 0, len(entries))
	for _, raw := range entries {
		var header entryHeader
		if err := json.Unmarshal(raw, &header); err != nil {
			return nil, err
		}
		if header.EntryType != "" && header.EntryType != entryTypeTranscript {
			continue
		}
		var snapshot Snapshot
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

func writeEntries(path string, entries []json.RawMessage) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".transcripts-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func loadEntries(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
