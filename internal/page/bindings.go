package page

import (
	"log/slog"
	"strings"
)

const (
	FadeInThreshold = 0.1

	ContactAcknowledgement = "Message sent! We will get back to you soon."
)

// Bind installs every binding and returns the effects of the set-up itself
// (the inserted menu button, decorated buttons). Bindings whose elements are
// missing are skipped.
func Bind(bus *Bus, logger *slog.Logger) []Effect {
	if logger == nil {
		logger = slog.Default()
	}
	BindFadeIn(bus)
	BindSmoothScroll(bus)
	BindNavScroll(bus)
	BindContactForm(bus, logger)
	BindPricingHover(bus)
	BindMobileMenu(bus)
	BindImagePreview(bus)
	BindButtons(bus)
	return bus.Document().Flush()
}

// BindFadeIn reveals .fade-in elements once at least 10% of them is in view.
// The class is never removed.
func BindFadeIn(bus *Bus) {
	doc := bus.Document()
	for _, el := range doc.QueryAll(ByClass("fade-in")) {
		el := el
		bus.On(EventIntersect, el, func(ev *Event, doc *Document) {
			if ev.Target != el.ID || ev.Ratio < FadeInThreshold {
				return
			}
			doc.AddClass(el, "visible")
		})
	}
}

// BindSmoothScroll turns in-page anchor jumps into smooth scrolls.
func BindSmoothScroll(bus *Bus) {
	doc := bus.Document()
	for _, a := range doc.QueryAll(AnchorPrefix("#")) {
		a := a
		bus.On(EventClick, a, func(ev *Event, doc *Document) {
			ev.PreventDefault()
			id := strings.TrimPrefix(a.Attr("href"), "#")
			if target := doc.ByID(id); id != "" && target != nil {
				doc.ScrollIntoView(target)
			}
		})
	}
}

// BindNavScroll hides the nav bar while scrolling down and shows it again on
// the way up, using the scroll-down and scroll-up classes.
func BindNavScroll(bus *Bus) {
	nav := bus.Document().Query(ByTag("nav"))
	if nav == nil {
		return
	}
	var last float64
	bus.On(EventScroll, nil, func(ev *Event, doc *Document) {
		current := ev.Y
		if current <= 0 {
			doc.RemoveClass(nav, "scroll-up")
			return
		}
		if current > last && !nav.HasClass("scroll-down") {
			doc.RemoveClass(nav, "scroll-up")
			doc.AddClass(nav, "scroll-down")
		} else if current < last && nav.HasClass("scroll-down") {
			doc.RemoveClass(nav, "scroll-down")
			doc.AddClass(nav, "scroll-up")
		}
		last = current
	})
}

// BindContactForm intercepts the first form on the page. Nothing is sent
// anywhere: the fields are logged, the visitor gets an acknowledgement and
// the form is reset.
func BindContactForm(bus *Bus, logger *slog.Logger) {
	form := bus.Document().Query(ByTag("form"))
	if form == nil {
		return
	}
	bus.On(EventSubmit, form, func(ev *Event, doc *Document) {
		ev.PreventDefault()
		logger.Info("contact form submitted", "form", form.ID, "fields", ev.Fields)
		doc.Alert(ContactAcknowledgement)
		doc.ResetForm(form)
	})
}

func BindPricingHover(bus *Bus) {
	for _, card := range bus.Document().QueryAll(ByClass("pricing-card")) {
		card := card
		bus.On(EventPointerEnter, card, func(ev *Event, doc *Document) {
			if ev.Target == card.ID {
				doc.AddClass(card, "hover-scale")
			}
		})
		bus.On(EventPointerLeave, card, func(ev *Event, doc *Document) {
			if ev.Target == card.ID {
				doc.RemoveClass(card, "hover-scale")
			}
		})
	}
}

// BindMobileMenu inserts a menu button in front of the responsive nav links
// (the element hidden on small screens) and makes it toggle them.
func BindMobileMenu(bus *Bus) {
	doc := bus.Document()
	links := doc.Query(ByClass("hidden", "md:flex"))
	if links == nil || links.Parent() == nil {
		return
	}
	button := NewElement("button", "md:hidden", "p-2").
		WithID("mobile-menu-button").
		WithAttr("type", "button").
		Append(NewElement("i", "fas", "fa-bars"))
	doc.InsertBefore(button, links)
	bus.On(EventClick, button, func(_ *Event, doc *Document) {
		doc.ToggleClass(links, "hidden")
	})
}

// BindImagePreview opens a full-screen overlay with the enlarged image when an
// .image-preview element is clicked. Clicking the backdrop or the close
// button removes it.
func BindImagePreview(bus *Bus) {
	for _, img := range bus.Document().QueryAll(ByClass("image-preview")) {
		img := img
		bus.On(EventClick, img, func(_ *Event, doc *Document) {
			openLightbox(bus, doc, img.Attr("src"))
		})
	}
}

func openLightbox(bus *Bus, doc *Document, src string) {
	closeButton := NewElement("button", "absolute", "top-4", "right-4", "text-white", "text-2xl", "hover:text-gray-300").
		WithAttr("type", "button").
		WithText("×")
	modal := NewElement("div", "fixed", "inset-0", "bg-black", "bg-opacity-75", "flex", "items-center", "justify-center", "z-50").
		Append(
			NewElement("div", "max-w-4xl", "max-h-[90vh]", "p-4").Append(
				NewElement("img", "max-w-full", "max-h-[80vh]", "object-contain").WithAttr("src", src),
				closeButton,
			),
		)
	doc.AppendChild(doc.Body(), modal)

	bus.On(EventClick, modal, func(ev *Event, doc *Document) {
		target := doc.ByID(ev.Target)
		if ev.Target == modal.ID || (target != nil && target.Tag == "button") {
			doc.Remove(modal)
		}
	})
}

// BindButtons gives every button present at bind time the click feedback
// class.
func BindButtons(bus *Bus) {
	doc := bus.Document()
	for _, b := range doc.QueryAll(ByTag("button")) {
		doc.AddClass(b, "button-click")
	}
}
