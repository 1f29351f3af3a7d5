package tui

import "testing"

func TestPageLayoutUpdate(t *testing.T) {
	cases := []struct {
		name             string
		width            int
		height           int
		reserved         int
		viewportWidth    int
		transcriptHeight int
		composerHeight   int
	}{
		{name: "narrow", width: 80, height: 24, viewportWidth: 76, transcriptHeight: 11, composerHeight: 3},
		{name: "wide", width: 200, height: 40, viewportWidth: 196, transcriptHeight: 27, composerHeight: 3},
		{name: "card reserved", width: 100, height: 40, reserved: 9, viewportWidth: 96, transcriptHeight: 18, composerHeight: 3},
		{name: "tiny", width: 30, height: 16, reserved: 8, viewportWidth: minViewportWidth, transcriptHeight: minTranscriptHeight, composerHeight: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := newPageLayout()
			layout.Update(tc.width, tc.height)
			if layout.viewportWidth != tc.viewportWidth {
				t.Fatalf("viewport width mismatch: got %d want %d", layout.viewportWidth, tc.viewportWidth)
			}
			if got := layout.transcriptHeight(tc.reserved); got != tc.transcriptHeight {
				t.Fatalf("transcript height mismatch: got %d want %d", got, tc.transcriptHeight)
			}
			if layout.composerHeight != tc.composerHeight {
				t.Fatalf("composer height mismatch: got %d want %d", layout.composerHeight, tc.composerHeight)
			}
		})
	}
}

func TestPreviewTextFlattensAndTruncates(t *testing.T) {
	got := previewText("write a\n  haiku   about Go", 12)
	if got != "write a hai…" {
		t.Fatalf("unexpected preview %q", got)
	}
	if got := previewText("日本語のプロンプト", 7); got != "日本語…" {
		t.Fatalf("wide runes should count two cells, got %q", got)
	}
}
