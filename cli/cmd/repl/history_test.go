package repl

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestHistory_WriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, e := range []HistoryEntry{
		{"user.name", modeEval},
		{"help", modeCtrl},
		{"user.name", modeEval}, // moves to the end
		{"list", modeCtrl},
		{"list", modeCtrl}, // repeated last entry is dropped
		{"  ", modeEval},   // blank entries are ignored
	} {
		if _, err := h.WriteWithMode(e.Line, e.Mode); err != nil {
			t.Fatalf("WriteWithMode(%q): %v", e.Line, err)
		}
	}

	want := []HistoryEntry{
		{"help", modeCtrl},
		{"user.name", modeEval},
		{"list", modeCtrl},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := loaded.Entries(); !slices.Equal(got, want) {
		t.Errorf("loaded Entries() = %v, want %v", got, want)
	}
}

func TestHistory_LoadMissingFile(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "missing"))
	if err := h.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestHistory_LoadUnprefixedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	if err := os.WriteFile(path, []byte("plain\nC:quit\n\nE:{x}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []HistoryEntry{
		{"plain", modeEval},
		{"quit", modeCtrl},
		{"{x}", modeEval},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestHistory_GetEntry(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), baseHistory))
	if _, err := h.WriteWithMode("a", modeEval); err != nil {
		t.Fatal(err)
	}

	if e, err := h.GetEntry(0); err != nil || e.Line != "a" {
		t.Errorf("GetEntry(0) = %v, %v", e, err)
	}

	for _, i := range []int{-1, 1} {
		if _, err := h.GetEntry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("GetEntry(%d) error = %v, want ErrOutOfBounds", i, err)
		}
	}
}
