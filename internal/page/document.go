// Package page models the marketing page around the chat widget: a small
// element tree, an event bus with explicit handler registration, and the
// interaction bindings (scroll effects, contact form, menu toggle, image
// preview).
//
// Handlers never touch a browser. They mutate the Document, and every
// visible change is recorded as an Effect that a client applies.
package page

import (
	"html"
	"sort"
	"strconv"
	"strings"
)

type Element struct {
	ID       string
	Tag      string
	Classes  []string
	Attrs    map[string]string
	Text     string
	Children []*Element

	parent *Element
}

func NewElement(tag string, classes ...string) *Element {
	return &Element{Tag: tag, Classes: classes}
}

func (e *Element) WithID(id string) *Element {
	e.ID = id
	return e
}

func (e *Element) WithAttr(name, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[name] = value
	return e
}

func (e *Element) WithText(text string) *Element {
	e.Text = text
	return e
}

func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		c.parent = e
		e.Children = append(e.Children, c)
	}
	return e
}

func (e *Element) Parent() *Element {
	return e.parent
}

func (e *Element) Attr(name string) string {
	return e.Attrs[name]
}

func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for n := other; n != nil; n = n.parent {
		if n == e {
			return true
		}
	}
	return false
}

// HTML serializes the subtree. Attributes are written in a stable order.
func (e *Element) HTML() string {
	var b strings.Builder
	e.writeHTML(&b)
	return b.String()
}

var voidTags = map[string]bool{"img": true, "input": true, "br": true, "hr": true, "meta": true, "link": true}

func (e *Element) writeHTML(b *strings.Builder) {
	b.WriteString("<" + e.Tag)
	if e.ID != "" {
		b.WriteString(` id="` + html.EscapeString(e.ID) + `"`)
	}
	if len(e.Classes) > 0 {
		b.WriteString(` class="` + html.EscapeString(strings.Join(e.Classes, " ")) + `"`)
	}
	names := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		b.WriteString(" " + k + `="` + html.EscapeString(e.Attrs[k]) + `"`)
	}
	b.WriteString(">")
	if voidTags[e.Tag] {
		return
	}
	b.WriteString(html.EscapeString(e.Text))
	for _, c := range e.Children {
		c.writeHTML(b)
	}
	b.WriteString("</" + e.Tag + ">")
}

// Selector matches elements.
type Selector func(*Element) bool

func ByTag(tag string) Selector {
	return func(e *Element) bool { return e.Tag == tag }
}

// ByClass matches elements carrying every given class.
func ByClass(classes ...string) Selector {
	return func(e *Element) bool {
		for _, c := range classes {
			if !e.HasClass(c) {
				return false
			}
		}
		return true
	}
}

// AnchorPrefix matches <a> elements whose href starts with prefix.
func AnchorPrefix(prefix string) Selector {
	return func(e *Element) bool {
		return e.Tag == "a" && strings.HasPrefix(e.Attr("href"), prefix)
	}
}

// Document owns an element tree, indexes it by id and records effects for
// every mutation.
type Document struct {
	root    *Element
	byID    map[string]*Element
	nextID  int
	effects []Effect
}

// NewDocument takes ownership of root. Elements without an id are given one
// in tree order, so two documents built from identical trees agree on ids.
func NewDocument(root *Element) *Document {
	d := &Document{root: root, byID: make(map[string]*Element)}
	d.index(root)
	return d
}

func (d *Document) index(e *Element) {
	if e.ID == "" {
		d.nextID++
		e.ID = "el-" + strconv.Itoa(d.nextID)
	}
	d.byID[e.ID] = e
	for _, c := range e.Children {
		c.parent = e
		d.index(c)
	}
}

func (d *Document) unindex(e *Element) {
	delete(d.byID, e.ID)
	for _, c := range e.Children {
		d.unindex(c)
	}
}

func (d *Document) Root() *Element {
	return d.root
}

// Body returns the <body> element, or the root when there is none.
func (d *Document) Body() *Element {
	if b := d.Query(ByTag("body")); b != nil {
		return b
	}
	return d.root
}

func (d *Document) ByID(id string) *Element {
	return d.byID[id]
}

// Attached reports whether e is still part of the tree.
func (d *Document) Attached(e *Element) bool {
	return e != nil && d.byID[e.ID] == e
}

func (d *Document) QueryAll(sel Selector) []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(e *Element) {
		if sel(e) {
			out = append(out, e)
		}
		for _, c := range e.Children {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

func (d *Document) Query(sel Selector) *Element {
	all := d.QueryAll(sel)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

func (d *Document) AddClass(e *Element, class string) {
	if e.HasClass(class) {
		return
	}
	e.Classes = append(e.Classes, class)
	d.emit(Effect{Kind: EffectAddClass, Target: e.ID, Class: class})
}

func (d *Document) RemoveClass(e *Element, class string) {
	if !e.HasClass(class) {
		return
	}
	kept := e.Classes[:0]
	for _, c := range e.Classes {
		if c != class {
			kept = append(kept, c)
		}
	}
	e.Classes = kept
	d.emit(Effect{Kind: EffectRemoveClass, Target: e.ID, Class: class})
}

// ToggleClass flips class and reports whether it is now present.
func (d *Document) ToggleClass(e *Element, class string) bool {
	if e.HasClass(class) {
		d.RemoveClass(e, class)
		return false
	}
	d.AddClass(e, class)
	return true
}

// InsertBefore puts e into ref's parent, directly before ref.
func (d *Document) InsertBefore(e, ref *Element) {
	parent := ref.parent
	if parent == nil {
		return
	}
	children := make([]*Element, 0, len(parent.Children)+1)
	for _, c := range parent.Children {
		if c == ref {
			children = append(children, e)
		}
		children = append(children, c)
	}
	parent.Children = children
	e.parent = parent
	d.index(e)
	d.emit(Effect{Kind: EffectInsert, Target: parent.ID, Ref: ref.ID, HTML: e.HTML()})
}

func (d *Document) AppendChild(parent, e *Element) {
	parent.Children = append(parent.Children, e)
	e.parent = parent
	d.index(e)
	d.emit(Effect{Kind: EffectInsert, Target: parent.ID, HTML: e.HTML()})
}

func (d *Document) Remove(e *Element) {
	parent := e.parent
	if parent == nil || !d.Attached(e) {
		return
	}
	kept := parent.Children[:0]
	for _, c := range parent.Children {
		if c != e {
			kept = append(kept, c)
		}
	}
	parent.Children = kept
	e.parent = nil
	d.unindex(e)
	d.emit(Effect{Kind: EffectRemove, Target: e.ID})
}

func (d *Document) ScrollIntoView(e *Element) {
	d.emit(Effect{Kind: EffectScrollIntoView, Target: e.ID, Behavior: "smooth", Block: "start"})
}

func (d *Document) Alert(text string) {
	d.emit(Effect{Kind: EffectAlert, Text: text})
}

func (d *Document) ResetForm(form *Element) {
	d.emit(Effect{Kind: EffectResetForm, Target: form.ID})
}

func (d *Document) emit(e Effect) {
	d.effects = append(d.effects, e)
}

// Flush returns and forgets the effects recorded so far.
func (d *Document) Flush() []Effect {
	out := d.effects
	d.effects = nil
	return out
}
