package server

import (
	"embed"
	"html/template"
	"io"

	"chatwidget/internal/page"
)

//go:embed templates/page.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html.tmpl"))

type pageData struct {
	Title string
	Body  template.HTML
	IDs   map[string]string
}

// renderPage wraps the bound landing body in the document shell and the page
// script. body is markup produced by page.Element.HTML, which escapes all
// text and attribute values.
func renderPage(w io.Writer, landing page.Landing, body string) error {
	return pageTemplate.Execute(w, pageData{
		Title: landing.Product,
		Body:  template.HTML(body),
		IDs: map[string]string{
			"messages": page.IDChatMessages,
			"history":  page.IDChatHistory,
			"input":    page.IDUserInput,
			"send":     page.IDSendButton,
			"loading":  page.IDLoadingIndicator,
			"commands": page.IDCommandPanel,
		},
	})
}
