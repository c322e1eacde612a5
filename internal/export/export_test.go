package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatwidget/internal/chat"
)

func TestBuildTranscript(t *testing.T) {
	msgs := []chat.Message{
		{Content: "hello", Type: chat.TypeUser},
		{Content: "canned reply", Type: chat.TypeAI},
		{Content: "Available commands", Type: chat.TypeSystem},
		{Content: "line one\nline two", Type: chat.TypeUser},
	}

	out := BuildTranscript(msgs)
	want := "User: hello\n\nAI: canned reply\n\nAI: Available commands\n\nUser: line one\nline two"
	if out != want {
		t.Fatalf("unexpected transcript:\n%q\nwant\n%q", out, want)
	}
}

func TestBuildTranscriptEntryCount(t *testing.T) {
	msgs := []chat.Message{
		{Content: "a", Type: chat.TypeUser},
		{Content: "b", Type: chat.TypeAI},
		{Content: "c", Type: chat.TypeUser},
	}
	entries := strings.Split(BuildTranscript(msgs), "\n\n")
	if len(entries) != len(msgs) {
		t.Fatalf("expected %d entries, got %d", len(msgs), len(entries))
	}
	for i, m := range msgs {
		if entries[i] != Speaker(m.Type)+": "+m.Content {
			t.Fatalf("entry %d = %q", i, entries[i])
		}
	}
}

func TestBuildTranscriptEmpty(t *testing.T) {
	if out := BuildTranscript(nil); out != "" {
		t.Fatalf("expected empty transcript, got %q", out)
	}
}

func TestExportWritesChatHistoryFile(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	path, err := e.Export(context.Background(), []chat.Message{{Content: "hi", Type: chat.TypeUser}})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if path != filepath.Join(dir, FileName) {
		t.Fatalf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "User: hi" {
		t.Fatalf("unexpected file content %q", data)
	}
}

func TestExportRelativeDirIsUnderCwd(t *testing.T) {
	e := &Exporter{overrideDir: "exports", cwd: "/work"}
	if got := e.outputPath(); got != filepath.Join("/work", "exports", FileName) {
		t.Fatalf("unexpected path %q", got)
	}
	e = &Exporter{cwd: "/work"}
	if got := e.outputPath(); got != filepath.Join("/work", FileName) {
		t.Fatalf("unexpected default path %q", got)
	}
}
