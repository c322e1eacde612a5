package ui

import (
	"errors"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"chatwidget/internal/chat"
	"chatwidget/internal/clipboard"
	"chatwidget/internal/export"
	"chatwidget/internal/logging"
	"chatwidget/internal/render"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

func newTestModel(t *testing.T, history []chat.Session, clip clipboard.Writer) (Model, *chat.Controller) {
	t.Helper()
	state := chat.NewState(history, chat.WithLogger(logging.Discard()))
	exp, err := export.New(t.TempDir())
	if err != nil {
		t.Fatalf("exporter: %v", err)
	}
	ctrl := chat.NewController(state, exp, chat.WithDelay(0))
	m := NewModel(ctrl, Options{Renderer: render.NewTerminal("notty"), Clipboard: clip})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), ctrl
}

func press(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestEnterSendsAndReplyArrivesLater(t *testing.T) {
	m, ctrl := newTestModel(t, nil, clipboard.Writer{})
	m = typeText(m, "hello")

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected a reply command")
	}
	msgs := ctrl.State.Messages()
	if len(msgs) != 1 || msgs[0].Content != "hello" || msgs[0].Type != chat.TypeUser {
		t.Fatalf("expected the user message only, got %+v", msgs)
	}
	if !ctrl.State.Generating() || !m.sink.loading {
		t.Fatalf("expected generating with the indicator shown")
	}
	if m.input.Value() != "" {
		t.Fatalf("expected input cleared, got %q", m.input.Value())
	}

	reply := m.respondCmd("hello")()
	m, _ = press(m, reply)
	msgs = ctrl.State.Messages()
	if len(msgs) != 2 || msgs[1].Content != chat.CannedReply || msgs[1].Type != chat.TypeAI {
		t.Fatalf("expected canned reply, got %+v", msgs)
	}
	if ctrl.State.Generating() || m.sink.loading {
		t.Fatalf("expected generating flag and indicator reset")
	}
	if !strings.Contains(ansi.Strip(m.viewport.View()), "simulated AI response") {
		t.Fatalf("viewport should show the reply")
	}
}

func TestFailedReplyShowsApology(t *testing.T) {
	m, ctrl := newTestModel(t, nil, clipboard.Writer{})
	m = typeText(m, "hi")
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(m, replyMsg{err: errors.New("boom")})

	msgs := ctrl.State.Messages()
	if len(msgs) != 2 || msgs[1].Content != chat.ApologyReply {
		t.Fatalf("expected apology, got %+v", msgs)
	}
	if m.sink.loading {
		t.Fatalf("indicator should be hidden after a failure")
	}
}

func TestEnterOnBlankInputDoesNothing(t *testing.T) {
	m, ctrl := newTestModel(t, nil, clipboard.Writer{})
	m = typeText(m, "   ")
	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatalf("expected no command for blank input")
	}
	if len(ctrl.State.Messages()) != 0 || ctrl.State.Generating() {
		t.Fatalf("blank input should not change state")
	}
}

func TestTypedCommandIsIntercepted(t *testing.T) {
	m, ctrl := newTestModel(t, nil, clipboard.Writer{})
	m = typeText(m, "/help")
	if !m.composer.OverlayOpen() {
		t.Fatalf("expected overlay while typing a command")
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	msgs := ctrl.State.Messages()
	if len(msgs) != 1 || msgs[0].Type != chat.TypeSystem || msgs[0].Content != chat.HelpText() {
		t.Fatalf("expected help system message, got %+v", msgs)
	}
	if m.composer.OverlayOpen() || m.input.Value() != "" {
		t.Fatalf("expected overlay closed and input cleared")
	}
}

func TestOverlaySelectionRunsExport(t *testing.T) {
	m, ctrl := newTestModel(t, nil, clipboard.Writer{})
	ctrl.State.AddMessage("hi", chat.TypeUser)

	m = typeText(m, "/")
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if got := m.composer.Overlay()[m.overlayIndex]; got != chat.CommandExport {
		t.Fatalf("expected /export highlighted, got %s", got)
	}
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyTab})
	if cmd == nil {
		t.Fatalf("expected export command")
	}
	if m.composer.OverlayOpen() || m.input.Value() != "" {
		t.Fatalf("selecting a command should close the overlay and clear input")
	}

	res, ok := cmd().(exportMsg)
	if !ok || res.err != nil {
		t.Fatalf("unexpected export result: %+v", res)
	}
	data, err := os.ReadFile(res.path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "User: hi" {
		t.Fatalf("unexpected transcript %q", data)
	}
	m, _ = press(m, res)
	if !strings.Contains(m.status, res.path) {
		t.Fatalf("expected status to name the file, got %q", m.status)
	}
}

func TestNewlineKeyDoesNotSend(t *testing.T) {
	m, ctrl := newTestModel(t, nil, clipboard.Writer{})
	m = typeText(m, "a")
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlJ})
	m = typeText(m, "b")
	if m.input.Value() != "a\nb" {
		t.Fatalf("expected a newline in the input, got %q", m.input.Value())
	}
	if len(ctrl.State.Messages()) != 0 {
		t.Fatalf("newline must not send")
	}
}

func TestHistoryListLoadsSession(t *testing.T) {
	history := []chat.Session{
		{ID: 1000, LastUpdated: "2024/1/1 10:00:00", Messages: []chat.Message{{Content: "first", Type: chat.TypeUser}}},
		{ID: 2000, LastUpdated: "2024/1/1 10:00:01", Messages: []chat.Message{{Content: "second", Type: chat.TypeUser}}},
	}
	m, ctrl := newTestModel(t, history, clipboard.Writer{})
	if len(m.list.Items()) != 2 || m.list.Index() != 1 {
		t.Fatalf("expected newest session selected, index=%d", m.list.Index())
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if !m.focusOnList {
		t.Fatalf("expected focus on history")
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})

	msgs := ctrl.State.Messages()
	if len(msgs) != 1 || msgs[0].Content != "first" {
		t.Fatalf("expected first session loaded, got %+v", msgs)
	}
	if id, ok := ctrl.State.CurrentSession(); !ok || id != 1000 {
		t.Fatalf("expected current session 1000, got %d", id)
	}
	if len(ctrl.State.History()) != 2 {
		t.Fatalf("loading must not add sessions")
	}
}

func TestCopyTranscript(t *testing.T) {
	var got string
	clip := clipboard.Writer{Write: func(s string) error {
		got = s
		return nil
	}}
	m, ctrl := newTestModel(t, nil, clip)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if cmd != nil || m.status != "Nothing to copy" {
		t.Fatalf("empty conversation should not copy, status=%q", m.status)
	}

	ctrl.State.AddMessage("hi", chat.TypeUser)
	ctrl.State.AddMessage("yo", chat.TypeAI)
	m, cmd = press(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if cmd == nil {
		t.Fatalf("expected copy command")
	}
	m, _ = press(m, cmd())
	if got != "User: hi\n\nAI: yo" {
		t.Fatalf("unexpected clipboard text %q", got)
	}
	if m.status != "Copied transcript to clipboard" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestCopyWithoutClipboardTool(t *testing.T) {
	m, ctrl := newTestModel(t, nil, clipboard.Writer{Unsupported: true, Write: func(string) error { return nil }})
	ctrl.State.AddMessage("hi", chat.TypeUser)
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	m, _ = press(m, cmd())
	if m.status != "Could not copy: clipboard tool not found" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, nil, clipboard.Writer{})
	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestViewShowsPanes(t *testing.T) {
	m, ctrl := newTestModel(t, nil, clipboard.Writer{})
	ctrl.State.AddMessage("hello there", chat.TypeUser)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})

	out := ansi.Strip(m.View())
	for _, want := range []string{"History", "messages=1", "hello there", "/clear", "/export", "/help"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestFindMarksAndCyclesMatches(t *testing.T) {
	m, ctrl := newTestModel(t, nil, clipboard.Writer{})
	ctrl.State.AddMessage("where is the needle", chat.TypeUser)
	ctrl.State.AddMessage("no idea", chat.TypeAI)
	ctrl.State.AddMessage("found the Needle", chat.TypeUser)
	m, _ = press(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlF})
	if !m.findMode {
		t.Fatalf("expected find mode")
	}
	m = typeText(m, "needle")
	if m.input.Value() != "" {
		t.Fatalf("find text leaked into the composer: %q", m.input.Value())
	}
	if m.findQuery != "needle" || m.matchHits != 2 || len(m.matchLines) != 2 {
		t.Fatalf("expected two hits, got query=%q hits=%d lines=%v", m.findQuery, m.matchHits, m.matchLines)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.findMode || m.findQuery != "needle" {
		t.Fatalf("enter should keep the query and close the bar")
	}
	if len(ctrl.State.Messages()) != 3 {
		t.Fatalf("enter in the find bar must not send")
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.status != "Match 2/2" {
		t.Fatalf("expected second match, got %q", m.status)
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.status != "Match 1/2" {
		t.Fatalf("expected wrap to first match, got %q", m.status)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.findQuery != "" || m.matchHits != 0 {
		t.Fatalf("esc should clear the find query")
	}
}

func TestShortenKeepsRunesWhole(t *testing.T) {
	got := shorten("导出失败：找不到剪贴板工具，请检查系统设置", 11)
	if !utf8.ValidString(got) || !strings.HasSuffix(got, "...") || ansi.StringWidth(got) > 11 {
		t.Fatalf("unexpected shortened text %q", got)
	}
	if shorten("  ok  ", 10) != "ok" {
		t.Fatalf("short text should only be trimmed")
	}
}
