package page

type EffectKind string

const (
	EffectAddClass       EffectKind = "addClass"
	EffectRemoveClass    EffectKind = "removeClass"
	EffectInsert         EffectKind = "insert"
	EffectRemove         EffectKind = "remove"
	EffectScrollIntoView EffectKind = "scrollIntoView"
	EffectAlert          EffectKind = "alert"
	EffectResetForm      EffectKind = "resetForm"
)

// Effect is one change a client must apply. Insert effects place HTML inside
// Target, before Ref when Ref is set, at the end otherwise.
type Effect struct {
	Kind     EffectKind `json:"kind"`
	Target   string     `json:"target,omitempty"`
	Ref      string     `json:"ref,omitempty"`
	Class    string     `json:"class,omitempty"`
	HTML     string     `json:"html,omitempty"`
	Text     string     `json:"text,omitempty"`
	Behavior string     `json:"behavior,omitempty"`
	Block    string     `json:"block,omitempty"`
}

// Event names understood by the bindings.
const (
	EventClick        = "click"
	EventScroll       = "scroll"
	EventSubmit       = "submit"
	EventIntersect    = "intersect"
	EventPointerEnter = "pointerenter"
	EventPointerLeave = "pointerleave"
)

type Event struct {
	Name   string            `json:"name"`
	Target string            `json:"target,omitempty"`
	Y      float64           `json:"y,omitempty"`
	Ratio  float64           `json:"ratio,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`

	defaultPrevented bool
}

func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

type Handler func(ev *Event, doc *Document)

type listener struct {
	target  *Element
	handler Handler
}

// Bus dispatches named events to registered handlers. A handler registered on
// an element also sees events targeted at its descendants. A nil target
// means the window.
type Bus struct {
	doc       *Document
	listeners map[string][]listener
}

func NewBus(doc *Document) *Bus {
	return &Bus{doc: doc, listeners: make(map[string][]listener)}
}

func (b *Bus) Document() *Document {
	return b.doc
}

func (b *Bus) On(name string, target *Element, h Handler) {
	b.listeners[name] = append(b.listeners[name], listener{target: target, handler: h})
}

type Result struct {
	Effects          []Effect `json:"effects"`
	DefaultPrevented bool     `json:"defaultPrevented"`
}

// Dispatch runs every matching handler in registration order and returns the
// effects they produced. Listeners on elements that have been removed from
// the document are dropped.
func (b *Bus) Dispatch(ev Event) Result {
	target := b.doc.ByID(ev.Target)

	current := b.listeners[ev.Name]
	kept := current[:0]
	var matched []listener
	for _, l := range current {
		if l.target != nil && !b.doc.Attached(l.target) {
			continue
		}
		kept = append(kept, l)
		if l.target == nil || (target != nil && l.target.Contains(target)) {
			matched = append(matched, l)
		}
	}
	b.listeners[ev.Name] = kept

	for _, l := range matched {
		l.handler(&ev, b.doc)
	}
	return Result{Effects: b.doc.Flush(), DefaultPrevented: ev.defaultPrevented}
}
