package refine

import (
	"testing"
	"time"
)

func TestIdleTimerRearmSupersedes(t *testing.T) {
	timer := NewIdleTimer(time.Second)
	first := timer.Arm()
	second := timer.Arm()
	if timer.Fire(first) {
		t.Fatal("superseded handle should not fire")
	}
	if !timer.Fire(second) {
		t.Fatal("latest handle should fire")
	}
	if timer.Fire(second) {
		t.Fatal("a handle fires at most once")
	}
}

func TestIdleTimerCancelAll(t *testing.T) {
	timer := NewIdleTimer(time.Second)
	timer.CancelAll()
	if timer.Fire(TimerHandle(0)) {
		t.Fatal("cancel with nothing armed should leave nothing to fire")
	}
	h := timer.Arm()
	timer.CancelAll()
	if timer.Fire(h) {
		t.Fatal("cancelled handle should not fire")
	}
	if next := timer.Arm(); next == h {
		t.Fatal("re-arming after cancel must yield a new handle")
	}
}

func TestTranscriptResetRestoresSeed(t *testing.T) {
	tr := NewTranscript("hi")
	tr.Append(Message{Role: RoleUser, Content: "q"})
	msgs := tr.Messages()
	msgs[0].Content = "mutated"
	if tr.Messages()[0].Content != "hi" {
		t.Fatal("Messages must return a copy")
	}
	tr.Reset()
	if got := tr.Messages(); len(got) != 1 || got[0].Content != "hi" {
		t.Fatalf("reset should restore seed, got %#v", tr.Messages())
	}
}
