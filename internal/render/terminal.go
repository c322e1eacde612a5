package render

import (
	"fmt"
	"strings"

	"chatwidget/internal/chat"

	"github.com/charmbracelet/glamour"
)

const DefaultGlamourStyle = "dark"

type Terminal struct {
	style string
}

func NewTerminal(style string) *Terminal {
	if style == "" {
		style = DefaultGlamourStyle
	}
	return &Terminal{style: style}
}

// Markdown builds the markdown document shown in the terminal: one section
// per message, speaker and time first.
func (t *Terminal) Markdown(messages []chat.Message) string {
	if len(messages) == 0 {
		return "_No messages yet. Type a message, or `/` for commands._\n"
	}
	var b strings.Builder
	for _, m := range messages {
		b.WriteString("**" + Speaker(m.Type) + "** · " + m.Timestamp + "\n\n")
		b.WriteString(strings.TrimSpace(m.Content) + "\n\n")
	}
	return b.String()
}

// Messages renders through glamour at the given wrap width. Renderer errors
// fall back to the plain markdown.
func (t *Terminal) Messages(messages []chat.Message, width int) string {
	md := t.Markdown(messages)
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(t.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func Speaker(t chat.MessageType) string {
	switch t {
	case chat.TypeUser:
		return "You"
	case chat.TypeSystem:
		return "System"
	default:
		return "AI"
	}
}

// Row is one entry of the terminal history list.
type Row struct {
	ID          int64
	Title       string
	Description string
}

func HistoryRows(sessions []chat.Session) []Row {
	rows := make([]Row, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, Row{
			ID:          s.ID,
			Title:       SessionTitle(s),
			Description: fmt.Sprintf("updated %s | %d msgs", s.LastUpdated, len(s.Messages)),
		})
	}
	return rows
}
