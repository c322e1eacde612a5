package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chatwidget/internal/chat"
)

// FileName is the name every transcript export is delivered under.
const FileName = "chat-history.txt"

type Exporter struct {
	overrideDir string
	cwd         string
}

func New(overrideDir string) (*Exporter, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve cwd: %w", err)
	}
	return &Exporter{overrideDir: strings.TrimSpace(overrideDir), cwd: cwd}, nil
}

// Export writes the transcript to chat-history.txt, replacing an older export,
// and returns the file path.
func (e *Exporter) Export(ctx context.Context, messages []chat.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := e.outputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(BuildTranscript(messages)), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// BuildTranscript renders one "speaker: content" entry per message, entries
// separated by a blank line, in message order.
func BuildTranscript(messages []chat.Message) string {
	entries := make([]string, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, Speaker(m.Type)+": "+m.Content)
	}
	return strings.Join(entries, "\n\n")
}

// Speaker is the transcript label: user messages are "User", everything else
// is "AI".
func Speaker(t chat.MessageType) string {
	if t == chat.TypeUser {
		return "User"
	}
	return "AI"
}

func (e *Exporter) outputPath() string {
	dir := e.overrideDir
	if dir == "" {
		return filepath.Join(e.cwd, FileName)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(e.cwd, dir)
	}
	return filepath.Join(dir, FileName)
}
