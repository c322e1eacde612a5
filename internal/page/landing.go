package page

import "log/slog"

// Element ids the chat widget script relies on.
const (
	IDChatMessages     = "chatMessages"
	IDChatHistory      = "chatHistory"
	IDUserInput        = "userInput"
	IDSendButton       = "sendButton"
	IDLoadingIndicator = "loadingIndicator"
	IDCommandPanel     = "commandPanel"
)

type Plan struct {
	Name     string
	Price    string
	Features []string
}

type Image struct {
	Src string
	Alt string
}

// Landing describes the marketing page content.
type Landing struct {
	Product  string
	Tagline  string
	Features []string
	Plans    []Plan
	Gallery  []Image
}

func DefaultLanding() Landing {
	return Landing{
		Product: "ChatWidget",
		Tagline: "An assistant on every page, with history that stays on your machine.",
		Features: []string{
			"Markdown answers with highlighted code",
			"Slash commands for clearing and exporting",
			"Local history you can reopen any time",
		},
		Plans: []Plan{
			{Name: "Free", Price: "$0", Features: []string{"Local history", "Export to text"}},
			{Name: "Pro", Price: "$9", Features: []string{"Everything in Free", "Priority replies"}},
			{Name: "Team", Price: "$29", Features: []string{"Everything in Pro", "Shared workspaces"}},
		},
		Gallery: []Image{
			{Src: "/static/screenshot-chat.png", Alt: "Chat window"},
			{Src: "/static/screenshot-history.png", Alt: "History sidebar"},
		},
	}
}

// Body builds the page body. Calling it twice yields identical trees, which
// is what lets every connection keep its own Document in step with the
// markup the browser received.
func (l Landing) Body() *Element {
	navLinks := NewElement("div", "hidden", "md:flex", "space-x-6")
	for _, link := range []struct{ href, label string }{
		{"#features", "Features"},
		{"#pricing", "Pricing"},
		{"#gallery", "Gallery"},
		{"#chat", "Try it"},
		{"#contact", "Contact"},
	} {
		navLinks.Append(NewElement("a", "text-gray-700").WithAttr("href", link.href).WithText(link.label))
	}
	nav := NewElement("nav", "fixed", "top-0", "w-full", "bg-white", "shadow", "z-40").Append(
		NewElement("div", "container", "mx-auto", "flex", "items-center", "justify-between", "p-4").Append(
			NewElement("a", "text-xl", "font-bold").WithAttr("href", "#top").WithText(l.Product),
			navLinks,
		),
	)

	hero := NewElement("header", "pt-24", "pb-16", "text-center", "fade-in").WithID("top").Append(
		NewElement("h1", "text-4xl", "font-bold").WithText(l.Product),
		NewElement("p", "mt-4", "text-gray-600").WithText(l.Tagline),
		NewElement("a", "inline-block", "mt-8", "px-6", "py-3", "bg-blue-600", "text-white", "rounded").
			WithAttr("href", "#chat").WithText("Start chatting"),
	)

	features := NewElement("section", "py-16", "container", "mx-auto").WithID("features")
	for _, f := range l.Features {
		features.Append(NewElement("div", "p-6", "fade-in").Append(NewElement("h3", "font-semibold").WithText(f)))
	}

	pricing := NewElement("section", "py-16", "bg-gray-50").WithID("pricing")
	cards := NewElement("div", "container", "mx-auto", "grid", "md:grid-cols-3", "gap-6")
	for _, p := range l.Plans {
		list := NewElement("ul", "mt-4", "space-y-2")
		for _, f := range p.Features {
			list.Append(NewElement("li").WithText(f))
		}
		cards.Append(NewElement("div", "pricing-card", "p-6", "bg-white", "rounded", "shadow", "fade-in").Append(
			NewElement("h3", "text-xl", "font-bold").WithText(p.Name),
			NewElement("p", "text-3xl", "mt-2").WithText(p.Price),
			list,
		))
	}
	pricing.Append(cards)

	gallery := NewElement("section", "py-16", "container", "mx-auto", "grid", "md:grid-cols-2", "gap-6").WithID("gallery")
	for _, img := range l.Gallery {
		gallery.Append(NewElement("img", "image-preview", "cursor-pointer", "rounded", "shadow").
			WithAttr("src", img.Src).WithAttr("alt", img.Alt))
	}

	chatSection := NewElement("section", "py-16", "container", "mx-auto", "grid", "md:grid-cols-4", "gap-6").WithID("chat").Append(
		NewElement("aside", "md:col-span-1").Append(
			NewElement("h3", "font-semibold", "mb-2").WithText("History"),
			NewElement("div", "space-y-1").WithID(IDChatHistory),
		),
		NewElement("div", "md:col-span-3", "flex", "flex-col").Append(
			NewElement("div", "chat-messages", "h-96", "overflow-y-auto", "p-4", "bg-white", "rounded", "shadow").
				WithID(IDChatMessages).WithAttr("data-scroll", "bottom"),
			NewElement("div", "hidden", "loading", "p-2", "text-gray-500").WithID(IDLoadingIndicator).WithText("Thinking…"),
			NewElement("div", "relative", "mt-4", "flex", "gap-2").Append(
				NewElement("textarea", "flex-1", "border", "rounded", "p-2").
					WithID(IDUserInput).WithAttr("rows", "2").WithAttr("placeholder", "Type a message, or / for commands"),
				NewElement("div", "command-panel").WithID(IDCommandPanel),
				NewElement("button", "px-4", "py-2", "bg-blue-600", "text-white", "rounded").
					WithID(IDSendButton).WithAttr("type", "button").WithText("Send"),
			),
		),
	)

	contact := NewElement("section", "py-16", "bg-gray-50").WithID("contact").Append(
		NewElement("form", "container", "mx-auto", "max-w-lg", "space-y-4", "fade-in").
			WithAttr("method", "post").WithAttr("action", "/contact").Append(
			NewElement("input", "w-full", "border", "rounded", "p-2").WithAttr("name", "name").WithAttr("placeholder", "Name"),
			NewElement("input", "w-full", "border", "rounded", "p-2").WithAttr("name", "email").WithAttr("type", "email").WithAttr("placeholder", "Email"),
			NewElement("textarea", "w-full", "border", "rounded", "p-2").WithAttr("name", "message").WithAttr("placeholder", "Message"),
			NewElement("button", "px-4", "py-2", "bg-blue-600", "text-white", "rounded").WithAttr("type", "submit").WithText("Send message"),
		),
	)

	footer := NewElement("footer", "py-8", "text-center", "text-gray-500").WithText("© " + l.Product)

	return NewElement("body", "bg-gray-100").Append(nav, hero, features, pricing, gallery, chatSection, contact, footer)
}

// Open builds a bound document for one page view. The returned markup already
// includes what the bindings added during set-up.
func (l Landing) Open(logger *slog.Logger) (*Bus, string) {
	bus := NewBus(NewDocument(l.Body()))
	Bind(bus, logger)
	return bus, bus.Document().Root().HTML()
}
