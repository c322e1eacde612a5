// Package render turns conversation state into markup: HTML for the served
// page and ANSI text for the terminal.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"chatwidget/internal/chat"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
)

const DefaultHighlightStyle = "github"

type HTML struct {
	md goldmark.Markdown
}

// NewHTML builds a GFM renderer whose fenced code blocks are highlighted with
// chroma. A fence language chroma does not know is detected from the code.
func NewHTML(style string) *HTML {
	if style == "" {
		style = DefaultHighlightStyle
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithGuessLanguage(true),
			),
		),
	)
	return &HTML{md: md}
}

// Markdown converts one message body. On a converter error the raw text is
// escaped and wrapped in a paragraph.
func (h *HTML) Markdown(src string) string {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(src), &buf); err != nil {
		return "<p>" + html.EscapeString(src) + "</p>"
	}
	return buf.String()
}

func (h *HTML) Messages(messages []chat.Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(`<div class="message ` + html.EscapeString(string(m.Type)) + `">`)
		b.WriteString(`<div class="message-content">`)
		b.WriteString(h.Markdown(m.Content))
		b.WriteString(`</div>`)
		b.WriteString(`<div class="timestamp">` + html.EscapeString(m.Timestamp) + `</div>`)
		b.WriteString("</div>\n")
	}
	return b.String()
}

// History renders one clickable row per session. Rows carry the session id in
// data-session; the page script posts it back to reload that session.
func (h *HTML) History(sessions []chat.Session) string {
	var b strings.Builder
	for _, s := range sessions {
		fmt.Fprintf(&b, `<div class="history-item p-2 hover:bg-gray-100 cursor-pointer rounded" data-session="%d">`, s.ID)
		b.WriteString(`<div class="text-sm font-medium">` + html.EscapeString(SessionTitle(s)) + `</div>`)
		b.WriteString(`<div class="text-xs text-gray-500">` + html.EscapeString(s.LastUpdated) + `</div>`)
		b.WriteString("</div>\n")
	}
	return b.String()
}

// SessionTitle is the human-readable creation time of a session.
func SessionTitle(s chat.Session) string {
	return "Session " + chat.FormatDateTime(s.Created())
}
