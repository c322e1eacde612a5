package server

import (
	"log/slog"
	"net/http"
	"sync"

	"chatwidget/internal/chat"
	"chatwidget/internal/page"
	"chatwidget/internal/render"

	"github.com/gorilla/websocket"
)

const sendBuffer = 64

// Frame types.
const (
	frameEvent    = "event"
	frameInput    = "input"
	frameSubmit   = "submit"
	frameCommand  = "command"
	frameLoad     = "load"
	frameEffects  = "effects"
	frameMessages = "messages"
	frameHistory  = "history"
	frameLoading  = "loading"
	frameOverlay  = "overlay"
	frameDownload = "download"
	frameError    = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inFrame is what the page script sends.
type inFrame struct {
	Type    string      `json:"type"`
	Event   *page.Event `json:"event,omitempty"`
	Value   string      `json:"value,omitempty"`
	Session int64       `json:"session,omitempty"`
}

type overlayItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// outFrame is what the server pushes. An overlay frame without commands
// closes the overlay.
type outFrame struct {
	Type     string        `json:"type"`
	HTML     string        `json:"html,omitempty"`
	Visible  *bool         `json:"visible,omitempty"`
	Effects  []page.Effect `json:"effects,omitempty"`
	Commands []overlayItem `json:"commands,omitempty"`
	URL      string        `json:"url,omitempty"`
	Text     string        `json:"text,omitempty"`
}

func overlayFrame(commands []chat.Command) outFrame {
	f := outFrame{Type: frameOverlay}
	for _, c := range commands {
		f.Commands = append(f.Commands, overlayItem{Name: c.String(), Description: c.Description()})
	}
	return f
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan outFrame
	bus  *page.Bus
}

func (c *client) writePump(logger *slog.Logger) {
	defer c.conn.Close()
	for f := range c.send {
		if err := c.conn.WriteJSON(f); err != nil {
			logger.Debug("websocket write", "client", c.id, "error", err)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Hub fans conversation updates out to every connected page. It is the
// state's View and the simulator's loading indicator on the served surface.
type Hub struct {
	html   *render.HTML
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*client
	loading bool
}

func NewHub(html *render.HTML, logger *slog.Logger) *Hub {
	return &Hub{html: html, logger: logger, clients: make(map[string]*client)}
}

func (h *Hub) RenderMessages(messages []chat.Message) {
	h.broadcast(outFrame{Type: frameMessages, HTML: h.html.Messages(messages)})
}

func (h *Hub) RenderHistory(history []chat.Session) {
	h.broadcast(outFrame{Type: frameHistory, HTML: h.html.History(history)})
}

func (h *Hub) SetLoading(visible bool) {
	h.mu.Lock()
	h.loading = visible
	h.mu.Unlock()
	h.broadcast(outFrame{Type: frameLoading, Visible: &visible})
}

func (h *Hub) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loading
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.logger.Info("page connected", "client", c.id)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Info("page disconnected", "client", c.id)
}

// sendTo queues f for one client. Frames for clients that are gone, or too
// slow to keep up, are dropped.
func (h *Hub) sendTo(c *client, f outFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] != c {
		return
	}
	h.enqueueLocked(c, f)
}

func (h *Hub) broadcast(f outFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		h.enqueueLocked(c, f)
	}
}

func (h *Hub) enqueueLocked(c *client, f outFrame) {
	select {
	case c.send <- f:
	default:
		h.logger.Warn("dropping frame for slow page", "client", c.id, "type", f.Type)
	}
}
