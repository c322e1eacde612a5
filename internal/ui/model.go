package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatwidget/internal/chat"
	"chatwidget/internal/clipboard"
	"chatwidget/internal/export"
	"chatwidget/internal/highlight"
	"chatwidget/internal/render"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const inputHeight = 3

type Model struct {
	ctx      context.Context
	ctrl     *chat.Controller
	renderer *render.Terminal
	clip     clipboard.Writer
	sink     *viewSink

	composer chat.Composer
	list     list.Model
	viewport viewport.Model
	input    textarea.Model
	find     textinput.Model
	help     help.Model
	spinner  spinner.Model
	keys     keyMap

	width  int
	height int

	focusOnList   bool
	overlayIndex  int
	pending       int
	renderedWidth int
	rendered      string

	findMode   bool
	findQuery  string
	matchLines []int
	matchIndex int
	matchHits  int

	status string
	err    error
}

// viewSink collects state notifications. They arrive on the Update goroutine
// because that is the only place the state is mutated.
type viewSink struct {
	messages      []chat.Message
	history       []chat.Session
	messagesDirty bool
	historyDirty  bool
	loading       bool
}

func (s *viewSink) RenderMessages(messages []chat.Message) {
	s.messages = messages
	s.messagesDirty = true
}

func (s *viewSink) RenderHistory(history []chat.Session) {
	s.history = history
	s.historyDirty = true
}

func (s *viewSink) SetLoading(visible bool) {
	s.loading = visible
}

type replyMsg struct {
	reply string
	err   error
}
type exportMsg struct {
	path string
	err  error
}
type copyMsg struct {
	err error
}

type sessionItem struct {
	row render.Row
}

func (i sessionItem) Title() string       { return i.row.Title }
func (i sessionItem) Description() string { return i.row.Description }
func (i sessionItem) FilterValue() string { return strings.ToLower(i.row.Title) }

type Options struct {
	Context   context.Context
	Renderer  *render.Terminal
	Clipboard clipboard.Writer
}

// NewModel builds the terminal chat around ctrl and installs itself as the
// state's view and the simulator's loading indicator.
func NewModel(ctrl *chat.Controller, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Renderer == nil {
		opts.Renderer = render.NewTerminal("")
	}

	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 32, 20)
	l.Title = "History"
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	vp := viewport.New(60, 20)

	ta := textarea.New()
	ta.Placeholder = "Type a message, or / for commands"
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	ti := textinput.New()
	ti.Prompt = "find: "
	ti.Placeholder = "text in the conversation"
	ti.CharLimit = 200

	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Points

	sink := &viewSink{
		messages:      ctrl.State.Messages(),
		history:       ctrl.State.History(),
		messagesDirty: true,
		historyDirty:  true,
	}
	ctrl.State.SetView(sink)
	ctrl.Simulator.SetIndicator(sink)

	m := Model{
		ctx:      opts.Context,
		ctrl:     ctrl,
		renderer: opts.Renderer,
		clip:     opts.Clipboard,
		sink:     sink,
		list:     l,
		viewport: vp,
		input:    ta,
		find:     ti,
		help:     h,
		spinner:  sp,
		keys:     defaultKeys(),
	}
	m.sync()
	return m
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) respondCmd(content string) tea.Cmd {
	sim, ctx := m.ctrl.Simulator, m.ctx
	return func() tea.Msg {
		reply, err := sim.Respond(ctx, content)
		return replyMsg{reply: reply, err: err}
	}
}

func (m Model) exportCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		res, err := ctrl.Run(ctx, nil, chat.CommandExport)
		return exportMsg{path: res.Location, err: err}
	}
}

func (m Model) copyCmd() tea.Cmd {
	msgs := m.ctrl.State.Messages()
	if len(msgs) == 0 {
		return nil
	}
	text := export.BuildTranscript(msgs)
	clip := m.clip
	return func() tea.Msg {
		return copyMsg{err: clip.Copy(text)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case replyMsg:
		m.ctrl.Simulator.Complete(msg.reply, msg.err)
		m.ctrl.Simulator.Finish()
		if m.pending > 0 {
			m.pending--
		}

	case exportMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.status = "Exported: " + msg.path
		}

	case copyMsg:
		if msg.err != nil {
			m.err = msg.err
			if errors.Is(msg.err, clipboard.ErrToolNotFound) {
				m.status = "Could not copy: clipboard tool not found"
			} else {
				m.status = "Could not copy: " + msg.err.Error()
			}
		} else {
			m.status = "Copied transcript to clipboard"
		}

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)
	}

	if m.sink.loading {
		var spin tea.Cmd
		m.spinner, spin = m.spinner.Update(msg)
		cmds = append(cmds, spin)
	}

	m.sync()
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case m.findMode:
		return m.handleFindKey(msg)
	case key.Matches(msg, m.keys.Find):
		m.findMode = true
		m.find.SetValue(m.findQuery)
		m.find.CursorEnd()
		m.input.Blur()
		cmd := m.find.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.NextMatch) && m.findQuery != "":
		m.jumpToMatch(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevMatch) && m.findQuery != "":
		m.jumpToMatch(-1)
		return m, nil
	case key.Matches(msg, m.keys.Copy):
		cmd := m.copyCmd()
		if cmd == nil {
			m.status = "Nothing to copy"
		}
		return m, cmd
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focusOnList {
		switch {
		case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.Esc):
			m.focusOnList = false
			cmd := m.input.Focus()
			return m, cmd
		case key.Matches(msg, m.keys.Load):
			item, ok := m.list.SelectedItem().(sessionItem)
			if ok && m.ctrl.State.LoadSession(item.row.ID) {
				m.status = "Loaded " + item.row.Title
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	if m.composer.OverlayOpen() {
		commands := m.composer.Overlay()
		switch {
		case key.Matches(msg, m.keys.Up):
			m.overlayIndex = (m.overlayIndex - 1 + len(commands)) % len(commands)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.overlayIndex = (m.overlayIndex + 1) % len(commands)
			return m, nil
		case key.Matches(msg, m.keys.Select):
			return m.runCommand(commands[m.overlayIndex])
		case key.Matches(msg, m.keys.Esc):
			m.composer.CloseOverlay()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		return m.submit()
	case key.Matches(msg, m.keys.Tab):
		m.focusOnList = true
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Up) && m.input.Line() == 0:
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Esc) && m.findQuery != "":
		m.findQuery = ""
		m.find.SetValue("")
		m.applyFind(false)
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		wasOpen := m.composer.OverlayOpen()
		m.composer.SetValue(after)
		if m.composer.OverlayOpen() && !wasOpen {
			m.overlayIndex = 0
		}
	}
	return m, cmd
}

// handleFindKey edits the find query. Matches are marked as it changes; esc
// drops the query and enter keeps it for next/prev navigation.
func (m Model) handleFindKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.findQuery = ""
		m.find.SetValue("")
		m.applyFind(false)
		return m.leaveFind()
	case tea.KeyEnter:
		return m.leaveFind()
	}

	before := strings.TrimSpace(m.find.Value())
	var cmd tea.Cmd
	m.find, cmd = m.find.Update(msg)
	if after := strings.TrimSpace(m.find.Value()); after != before {
		m.findQuery = after
		m.applyFind(true)
	}
	return m, cmd
}

func (m Model) leaveFind() (Model, tea.Cmd) {
	m.findMode = false
	m.find.Blur()
	if m.focusOnList {
		return m, nil
	}
	cmd := m.input.Focus()
	return m, cmd
}

// submit handles Enter in the composer. An exact command is run in place;
// anything else starts a reply whose delay runs off the Update loop.
func (m Model) submit() (Model, tea.Cmd) {
	m.composer.SetValue(m.input.Value())
	m.composer.CloseOverlay()
	if cmd, ok := chat.ParseCommand(m.composer.Value()); ok {
		return m.runCommand(cmd)
	}
	content, ok := m.ctrl.Simulator.Begin(m.composer.Value(), &m.composer)
	if !ok {
		return m, nil
	}
	m.input.Reset()
	m.pending++
	m.status = ""
	return m, tea.Batch(m.respondCmd(content), m.spinner.Tick)
}

func (m Model) runCommand(cmd chat.Command) (Model, tea.Cmd) {
	m.input.Reset()
	m.composer.Clear()
	if cmd == chat.CommandExport {
		return m, m.exportCmd()
	}
	if _, err := m.ctrl.Run(m.ctx, &m.composer, cmd); err != nil {
		m.err = err
		m.status = "Command failed: " + err.Error()
		return m, nil
	}
	m.status = "Ran " + cmd.String()
	return m, nil
}

// sync pulls pending state notifications into the viewport and the list.
func (m *Model) sync() {
	m.resize()
	if m.viewport.Width != m.renderedWidth {
		m.sink.messagesDirty = true
	}
	if m.sink.messagesDirty {
		m.rendered = m.renderer.Messages(m.sink.messages, m.viewport.Width-2)
		m.renderedWidth = m.viewport.Width
		m.sink.messagesDirty = false
		m.applyFind(false)
	}
	if m.sink.historyDirty {
		m.applyHistory(m.sink.history)
		m.sink.historyDirty = false
	}
}

// applyFind puts the rendered conversation in the viewport with the find
// query marked. With jump set the view moves to the first match, otherwise
// it follows the newest message.
func (m *Model) applyFind(jump bool) {
	content := m.rendered
	if m.findQuery == "" {
		m.matchLines, m.matchHits, m.matchIndex = nil, 0, -1
	} else {
		res := highlight.Mark(m.rendered, m.findQuery, func(hit string) string {
			return findMatchStyle.Render(hit)
		})
		content = res.Text
		m.matchLines, m.matchHits = res.Lines, res.Hits
		if m.matchIndex >= len(m.matchLines) {
			m.matchIndex = -1
		}
	}
	m.viewport.SetContent(content)
	if jump && len(m.matchLines) > 0 {
		m.matchIndex = 0
		m.viewport.SetYOffset(m.clampOffset(m.matchLines[0]))
		return
	}
	m.viewport.GotoBottom()
}

func (m *Model) jumpToMatch(delta int) {
	if len(m.matchLines) == 0 {
		m.status = "No matches for " + m.findQuery
		return
	}
	switch {
	case m.matchIndex < 0:
		m.matchIndex = 0
	case delta > 0:
		m.matchIndex = (m.matchIndex + 1) % len(m.matchLines)
	default:
		m.matchIndex = (m.matchIndex - 1 + len(m.matchLines)) % len(m.matchLines)
	}
	m.viewport.SetYOffset(m.clampOffset(m.matchLines[m.matchIndex]))
	m.status = fmt.Sprintf("Match %d/%d", m.matchIndex+1, len(m.matchLines))
}

func (m *Model) clampOffset(offset int) int {
	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	if offset < 0 {
		return 0
	}
	return offset
}

func (m *Model) applyHistory(sessions []chat.Session) {
	rows := render.HistoryRows(sessions)
	items := make([]list.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, sessionItem{row: r})
	}
	m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	left, right := m.paneWidths()

	bodyHeight := m.height - 2
	if bodyHeight < 12 {
		bodyHeight = 12
	}

	m.list.SetSize(left-2, bodyHeight-2)
	m.input.SetWidth(right - 4)

	reserved := inputHeight + 1
	if m.composer.OverlayOpen() {
		reserved += len(m.composer.Overlay()) + 2
	}
	m.viewport.Width = right - 2
	m.viewport.Height = bodyHeight - 2 - reserved
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}

	left, right := m.paneWidths()
	leftPane := panelStyle(m.focusOnList).Width(left).Height(m.height - 2).Render(m.list.View())

	parts := []string{m.viewport.View()}
	if m.composer.OverlayOpen() {
		parts = append(parts, m.overlayView())
	}
	parts = append(parts, m.loadingLine(), m.input.View())
	chatPane := lipgloss.JoinVertical(lipgloss.Left, parts...)
	rightPane := panelStyle(!m.focusOnList).Width(right).Height(m.height - 2).Render(chatPane)

	body := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)
	helpView := m.help.View(m.keys)
	if m.findMode {
		helpView = m.find.View() + "  " + helpView
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusLine(),
		body,
		helpView,
	)
}

func (m Model) overlayView() string {
	var lines []string
	for i, c := range m.composer.Overlay() {
		line := fmt.Sprintf("%-8s %s", c.String(), c.Description())
		if i == m.overlayIndex {
			line = overlaySelectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return overlayStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) loadingLine() string {
	if !m.sink.loading {
		return ""
	}
	return loadingStyle.Render(m.spinner.View() + " AI is typing...")
}

func (m Model) statusLine() string {
	status := fmt.Sprintf("messages=%d  sessions=%d", len(m.sink.messages), len(m.sink.history))
	if id, ok := m.ctrl.State.CurrentSession(); ok {
		status += "  session=" + render.SessionTitle(chat.Session{ID: id})
	}
	if m.ctrl.State.Generating() {
		status += "  [generating]"
	}
	if m.findQuery != "" {
		status += fmt.Sprintf("  [find %q: %d hits]", m.findQuery, m.matchHits)
	}
	if m.pending > 1 {
		status += fmt.Sprintf("  [%d pending]", m.pending)
	}
	if strings.TrimSpace(m.status) != "" {
		status += "  " + shorten(strings.TrimSpace(m.status), 80)
	}
	if m.err != nil {
		status += "  err=" + m.err.Error()
	}
	return statusStyle.Render(status)
}

func (m *Model) paneWidths() (int, int) {
	left := m.width / 4
	if left < 28 {
		left = 28
	}
	if left > m.width-40 {
		left = m.width - 40
	}
	if left < 20 {
		left = 20
	}
	right := m.width - left - 1
	if right < 30 {
		right = 30
	}
	return left, right
}

// shorten cuts s to n cells, ending in "..." when it had to cut.
func shorten(s string, n int) string {
	return ansi.Truncate(strings.TrimSpace(s), n, "...")
}

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)
	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)
	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("39"))
	findMatchStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("214"))
	overlaySelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("16")).
				Background(lipgloss.Color("220"))
)

func panelStyle(active bool) lipgloss.Style {
	border := lipgloss.NormalBorder()
	if active {
		return lipgloss.NewStyle().
			Border(border, true).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	}
	return lipgloss.NewStyle().
		Border(border, true).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
}

type keyMap struct {
	Send      key.Binding
	Newline   key.Binding
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Tab       key.Binding
	Load      key.Binding
	Esc       key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Copy      key.Binding
	Find      key.Binding
	NextMatch key.Binding
	PrevMatch key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "newline"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "run command"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "history"),
		),
		Load: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "load session"),
		),
		Esc: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy transcript"),
		),
		Find: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "find"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "prev match"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Newline, k.Tab, k.Find, k.PageUp, k.PageDown, k.Copy, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Newline, k.Up, k.Down, k.Select},
		{k.Tab, k.Load, k.Esc, k.PageUp, k.PageDown},
		{k.Find, k.NextMatch, k.PrevMatch},
		{k.Copy, k.Quit},
	}
}
