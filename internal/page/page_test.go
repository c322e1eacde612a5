package page

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestBus(children ...*Element) *Bus {
	return NewBus(NewDocument(NewElement("body").Append(children...)))
}

func hasEffect(effects []Effect, want Effect) bool {
	for _, e := range effects {
		if e == want {
			return true
		}
	}
	return false
}

func TestDispatchBubblesToAncestors(t *testing.T) {
	child := NewElement("span").WithID("child")
	parent := NewElement("div").WithID("parent").Append(child)
	sibling := NewElement("div").WithID("sibling")
	bus := newTestBus(parent, sibling)

	var got []string
	bus.On(EventClick, parent, func(ev *Event, _ *Document) { got = append(got, "parent:"+ev.Target) })
	bus.On(EventClick, sibling, func(ev *Event, _ *Document) { got = append(got, "sibling:"+ev.Target) })
	bus.On(EventClick, nil, func(ev *Event, _ *Document) { got = append(got, "window:"+ev.Target) })

	bus.Dispatch(Event{Name: EventClick, Target: "child"})
	if strings.Join(got, ",") != "parent:child,window:child" {
		t.Fatalf("unexpected handlers: %v", got)
	}
}

func TestFadeInRevealsAtThreshold(t *testing.T) {
	bus := newTestBus(NewElement("section", "fade-in").WithID("a"))
	BindFadeIn(bus)

	if res := bus.Dispatch(Event{Name: EventIntersect, Target: "a", Ratio: 0.05}); len(res.Effects) != 0 {
		t.Fatalf("expected nothing below threshold, got %+v", res.Effects)
	}
	res := bus.Dispatch(Event{Name: EventIntersect, Target: "a", Ratio: FadeInThreshold})
	if !hasEffect(res.Effects, Effect{Kind: EffectAddClass, Target: "a", Class: "visible"}) {
		t.Fatalf("expected visible class, got %+v", res.Effects)
	}
	if res := bus.Dispatch(Event{Name: EventIntersect, Target: "a", Ratio: 0}); len(res.Effects) != 0 {
		t.Fatalf("visible class should stick, got %+v", res.Effects)
	}
}

func TestSmoothScroll(t *testing.T) {
	bus := newTestBus(
		NewElement("a").WithID("link").WithAttr("href", "#pricing"),
		NewElement("a").WithID("dead").WithAttr("href", "#missing"),
		NewElement("a").WithID("away").WithAttr("href", "https://example.com"),
		NewElement("section").WithID("pricing"),
	)
	BindSmoothScroll(bus)

	res := bus.Dispatch(Event{Name: EventClick, Target: "link"})
	if !res.DefaultPrevented {
		t.Fatalf("expected default navigation to be prevented")
	}
	want := Effect{Kind: EffectScrollIntoView, Target: "pricing", Behavior: "smooth", Block: "start"}
	if len(res.Effects) != 1 || res.Effects[0] != want {
		t.Fatalf("unexpected effects: %+v", res.Effects)
	}

	res = bus.Dispatch(Event{Name: EventClick, Target: "dead"})
	if !res.DefaultPrevented || len(res.Effects) != 0 {
		t.Fatalf("missing target should only prevent default, got %+v", res)
	}

	res = bus.Dispatch(Event{Name: EventClick, Target: "away"})
	if res.DefaultPrevented {
		t.Fatalf("external links should navigate normally")
	}
}

func TestNavScrollDirection(t *testing.T) {
	bus := newTestBus(NewElement("nav").WithID("nav"))
	BindNavScroll(bus)

	steps := []struct {
		y    float64
		want []Effect
	}{
		{100, []Effect{{Kind: EffectAddClass, Target: "nav", Class: "scroll-down"}}},
		{150, nil},
		{50, []Effect{
			{Kind: EffectRemoveClass, Target: "nav", Class: "scroll-down"},
			{Kind: EffectAddClass, Target: "nav", Class: "scroll-up"},
		}},
		{0, []Effect{{Kind: EffectRemoveClass, Target: "nav", Class: "scroll-up"}}},
	}
	for _, step := range steps {
		res := bus.Dispatch(Event{Name: EventScroll, Y: step.y})
		if len(res.Effects) != len(step.want) {
			t.Fatalf("y=%v: expected %+v, got %+v", step.y, step.want, res.Effects)
		}
		for i := range step.want {
			if res.Effects[i] != step.want[i] {
				t.Fatalf("y=%v: expected %+v, got %+v", step.y, step.want, res.Effects)
			}
		}
	}
}

func TestContactFormAcknowledges(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	bus := newTestBus(NewElement("form").WithID("contact").Append(
		NewElement("input").WithID("name").WithAttr("name", "name"),
	))
	BindContactForm(bus, logger)

	res := bus.Dispatch(Event{Name: EventSubmit, Target: "contact", Fields: map[string]string{"name": "Ada"}})
	if !res.DefaultPrevented {
		t.Fatalf("expected submission to be intercepted")
	}
	want := []Effect{
		{Kind: EffectAlert, Text: ContactAcknowledgement},
		{Kind: EffectResetForm, Target: "contact"},
	}
	if len(res.Effects) != 2 || res.Effects[0] != want[0] || res.Effects[1] != want[1] {
		t.Fatalf("unexpected effects: %+v", res.Effects)
	}
	if !strings.Contains(buf.String(), "contact form submitted") || !strings.Contains(buf.String(), "Ada") {
		t.Fatalf("expected fields to be logged, got %q", buf.String())
	}
}

func TestPricingHover(t *testing.T) {
	bus := newTestBus(NewElement("div", "pricing-card").WithID("card").Append(NewElement("h3").WithID("title")))
	BindPricingHover(bus)

	res := bus.Dispatch(Event{Name: EventPointerEnter, Target: "card"})
	if !hasEffect(res.Effects, Effect{Kind: EffectAddClass, Target: "card", Class: "hover-scale"}) {
		t.Fatalf("expected hover-scale, got %+v", res.Effects)
	}
	// pointerenter does not bubble from children
	if res := bus.Dispatch(Event{Name: EventPointerEnter, Target: "title"}); len(res.Effects) != 0 {
		t.Fatalf("unexpected effects from child: %+v", res.Effects)
	}
	res = bus.Dispatch(Event{Name: EventPointerLeave, Target: "card"})
	if !hasEffect(res.Effects, Effect{Kind: EffectRemoveClass, Target: "card", Class: "hover-scale"}) {
		t.Fatalf("expected hover-scale removed, got %+v", res.Effects)
	}
}

func TestMobileMenuToggle(t *testing.T) {
	links := NewElement("div", "hidden", "md:flex").WithID("links")
	bus := newTestBus(NewElement("nav").Append(NewElement("div").WithID("bar").Append(links)))

	setup := Bind(bus, nil)
	var inserted *Effect
	for i := range setup {
		if setup[i].Kind == EffectInsert {
			inserted = &setup[i]
		}
	}
	if inserted == nil || inserted.Target != "bar" || inserted.Ref != "links" {
		t.Fatalf("expected menu button inserted before links, got %+v", setup)
	}
	if !strings.Contains(inserted.HTML, `id="mobile-menu-button"`) {
		t.Fatalf("unexpected button markup: %s", inserted.HTML)
	}
	if !hasEffect(setup, Effect{Kind: EffectAddClass, Target: "mobile-menu-button", Class: "button-click"}) {
		t.Fatalf("expected the menu button to get click feedback, got %+v", setup)
	}

	doc := bus.Document()
	button := doc.ByID("mobile-menu-button")
	if button.Parent().ID != "bar" || doc.ByID("bar").Children[0] != button {
		t.Fatalf("menu button should come first in the bar")
	}

	res := bus.Dispatch(Event{Name: EventClick, Target: button.ID})
	if !hasEffect(res.Effects, Effect{Kind: EffectRemoveClass, Target: "links", Class: "hidden"}) {
		t.Fatalf("expected links shown, got %+v", res.Effects)
	}
	icon := button.Children[0]
	res = bus.Dispatch(Event{Name: EventClick, Target: icon.ID})
	if !hasEffect(res.Effects, Effect{Kind: EffectAddClass, Target: "links", Class: "hidden"}) {
		t.Fatalf("expected icon click to hide links again, got %+v", res.Effects)
	}
}

func TestImagePreviewLightbox(t *testing.T) {
	bus := newTestBus(NewElement("img", "image-preview").WithID("shot").WithAttr("src", "a.png"))
	BindImagePreview(bus)
	doc := bus.Document()
	body := doc.Body()

	res := bus.Dispatch(Event{Name: EventClick, Target: "shot"})
	if len(res.Effects) != 1 || res.Effects[0].Kind != EffectInsert || res.Effects[0].Target != body.ID {
		t.Fatalf("expected overlay appended to body, got %+v", res.Effects)
	}
	if !strings.Contains(res.Effects[0].HTML, `src="a.png"`) {
		t.Fatalf("overlay should show the clicked image: %s", res.Effects[0].HTML)
	}
	modal := body.Children[len(body.Children)-1]
	frame := modal.Children[0]
	enlarged, closeButton := frame.Children[0], frame.Children[1]

	if res := bus.Dispatch(Event{Name: EventClick, Target: enlarged.ID}); len(res.Effects) != 0 {
		t.Fatalf("clicking the image should keep the overlay, got %+v", res.Effects)
	}
	res = bus.Dispatch(Event{Name: EventClick, Target: closeButton.ID})
	if len(res.Effects) != 1 || res.Effects[0] != (Effect{Kind: EffectRemove, Target: modal.ID}) {
		t.Fatalf("expected overlay removed, got %+v", res.Effects)
	}
	if doc.Attached(modal) {
		t.Fatalf("overlay should be detached")
	}

	before := len(bus.listeners[EventClick])
	bus.Dispatch(Event{Name: EventClick, Target: "shot"})
	last := body.Children[len(body.Children)-1]
	bus.Dispatch(Event{Name: EventClick, Target: last.ID})
	if got := len(bus.listeners[EventClick]); got != before {
		t.Fatalf("expected listeners of removed overlays to be dropped, had %d now %d", before, got)
	}
}

func TestBindSkipsMissingElements(t *testing.T) {
	bus := newTestBus(NewElement("p").WithText("nothing to bind"))
	if effects := Bind(bus, nil); len(effects) != 0 {
		t.Fatalf("expected no set-up effects, got %+v", effects)
	}
	for _, name := range []string{EventClick, EventSubmit, EventScroll} {
		if res := bus.Dispatch(Event{Name: name}); len(res.Effects) != 0 {
			t.Fatalf("%s: unexpected effects %+v", name, res.Effects)
		}
	}
}

func TestElementHTML(t *testing.T) {
	el := NewElement("div", "a", "b").WithID("x").WithAttr("title", `say "hi"`).WithAttr("data-k", "v").Append(
		NewElement("img").WithAttr("src", "p.png"),
		NewElement("span").WithText("<b>"),
	)
	want := `<div id="x" class="a b" data-k="v" title="say &#34;hi&#34;"><img src="p.png"><span>&lt;b&gt;</span></div>`
	if got := el.HTML(); got != want {
		t.Fatalf("unexpected html:\n got %s\nwant %s", got, want)
	}
}

func TestLandingOpenIsDeterministic(t *testing.T) {
	landing := DefaultLanding()
	_, first := landing.Open(nil)
	_, second := landing.Open(nil)
	if first != second {
		t.Fatalf("two page views should render identical markup")
	}
	for _, id := range []string{IDChatMessages, IDChatHistory, IDUserInput, IDSendButton, IDLoadingIndicator, "mobile-menu-button"} {
		if !strings.Contains(first, `id="`+id+`"`) {
			t.Fatalf("missing #%s in landing markup", id)
		}
	}
}

func TestLandingContactFormIsFirstForm(t *testing.T) {
	bus, _ := DefaultLanding().Open(nil)
	form := bus.Document().Query(ByTag("form"))
	if form == nil || form.Parent().ID != "contact" {
		t.Fatalf("expected the contact section to own the first form")
	}
	res := bus.Dispatch(Event{Name: EventSubmit, Target: form.ID})
	if !hasEffect(res.Effects, Effect{Kind: EffectAlert, Text: ContactAcknowledgement}) {
		t.Fatalf("expected acknowledgement, got %+v", res.Effects)
	}
}
