package archive

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/csheth/promptune/internal/refine"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "transcripts.json")
	first := NewSnapshot("http://localhost:8000", []refine.Message{
		{Role: refine.RoleAssistant, Content: "hello"},
		{Role: refine.RoleUser, Content: "S"},
	}, nil)
	live := refine.SuggestionSet{Score: 6, Specific: "S"}
	second := NewSnapshot("http://localhost:8000", []refine.Message{
		{Role: refine.RoleAssistant, Content: "hello"},
	}, &live)

	if err := Save(path, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := Save(path, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("snapshots out of order: %#v", got)
	}
	if len(got[0].Messages) != 2 || got[0].Messages[1].Content != "S" {
		t.Fatalf("unexpected messages: %#v", got[0].Messages)
	}
	if got[0].Suggestions != nil {
		t.Fatal("first snapshot should have no suggestions")
	}
	if got[1].Suggestions == nil || got[1].Suggestions.Score != 6 {
		t.Fatalf("expected live suggestions to persist, got %#v", got[1].Suggestions)
	}
}

func TestNewSnapshotCopiesMessages(t *testing.T) {
	t.Parallel()

	msgs := []refine.Message{{Role: refine.RoleUser, Content: "a"}}
	snap := NewSnapshot("", msgs, nil)
	msgs[0].Content = "b"
	if snap.Messages[0].Content != "a" {
		t.Fatal("snapshot must not alias caller messages")
	}
	if snap.ID == "" || snap.CapturedAt.IsZero() {
		t.Fatalf("snapshot missing id or timestamp: %#v", snap)
	}
}

func TestLoadSkipsForeignEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mixed.json")
	data := `[{"entryType":"note","title":"x"},{"id":"legacy","messages":[{"role":"user","content":"q"}]}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "legacy" {
		t.Fatalf("expected only the legacy transcript, got %#v", got)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no snapshots, got %d", len(got))
	}
}

func TestSaveRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	if err := Save("", Snapshot{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSaveConcurrentAppendsAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transcripts.json")
	const saves = 20

	var wg sync.WaitGroup
	errs := make(chan error, saves)
	for i := 0; i < saves; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- Save(path, NewSnapshot("", []refine.Message{{Role: refine.RoleUser, Content: "hi"}}, nil))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	saved, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(saved) != saves {
		t.Fatalf("expected %d snapshots, got %d", saves, len(saved))
	}
	ids := map[string]bool{}
	for _, s := range saved {
		ids[s.ID] = true
	}
	if len(ids) != saves {
		t.Fatalf("expected %d distinct ids, got %d", saves, len(ids))
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, ".transcripts-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}
