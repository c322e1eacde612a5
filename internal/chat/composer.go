package chat

import "strings"

// Composer models the input box: its text and whether the command overlay is
// showing.
type Composer struct {
	value       string
	overlayOpen bool
}

func (c *Composer) Value() string {
	return c.value
}

// SetValue applies an edit. A value starting with "/" opens the overlay, any
// other value closes it.
func (c *Composer) SetValue(v string) {
	c.value = v
	c.overlayOpen = strings.HasPrefix(v, "/")
}

func (c *Composer) Clear() {
	c.value = ""
	c.overlayOpen = false
}

func (c *Composer) OverlayOpen() bool {
	return c.overlayOpen
}

func (c *Composer) CloseOverlay() {
	c.overlayOpen = false
}

// Overlay returns the selectable commands, or nil when the overlay is closed.
func (c *Composer) Overlay() []Command {
	if !c.overlayOpen {
		return nil
	}
	return Commands()
}
