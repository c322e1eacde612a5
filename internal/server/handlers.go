package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"chatwidget/internal/chat"
	"chatwidget/internal/export"
	"chatwidget/internal/page"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type submitResponse struct {
	Sent     bool   `json:"sent"`
	Command  string `json:"command,omitempty"`
	Location string `json:"location,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	_, body := s.landing.Open(s.logger)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderPage(w, s.landing, body); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(s.html.Messages(s.ctrl.State.Messages())))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(s.html.History(s.ctrl.State.History())))
}

// handleSubmit blocks for the response delay when the content is not a
// command. The reply is tied to the server, not the request: a client that
// goes away mid-delay still gets the reply appended.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	var composer chat.Composer
	composer.SetValue(r.PostForm.Get("content"))

	out, err := s.ctrl.Submit(s.ctx, &composer)
	if err != nil {
		s.logger.Error("submit", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := submitResponse{Sent: out.Sent}
	if out.Command != nil {
		resp.Command = out.Command.Command.String()
		resp.Location = out.Command.Location
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	cmd, ok := chat.ParseCommandName(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown command")
		return
	}
	res, err := s.ctrl.Run(r.Context(), nil, cmd)
	if err != nil {
		s.logger.Error("run command", "command", cmd.String(), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Command: res.Command.String(), Location: res.Location})
}

func (s *Server) handleLoadSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if !s.ctrl.State.LoadSession(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName+`"`)
	w.Write([]byte(export.BuildTranscript(s.ctrl.State.Messages())))
}

// handleContact is the form's fallback when the page script is not running.
// Like the scripted path it only logs.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	fields := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}
	s.logger.Info("contact form submitted", "fields", fields)
	writeJSON(w, http.StatusOK, map[string]string{"message": page.ContactAcknowledgement})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}

	bus, _ := s.landing.Open(s.logger)
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan outFrame, sendBuffer),
		bus:  bus,
	}
	s.hub.register(c)
	go c.writePump(s.logger)
	defer s.hub.unregister(c)

	loading := s.hub.Loading()
	s.hub.sendTo(c, outFrame{Type: frameMessages, HTML: s.html.Messages(s.ctrl.State.Messages())})
	s.hub.sendTo(c, outFrame{Type: frameHistory, HTML: s.html.History(s.ctrl.State.History())})
	s.hub.sendTo(c, outFrame{Type: frameLoading, Visible: &loading})

	for {
		var in inFrame
		if err := conn.ReadJSON(&in); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.hub.sendTo(c, outFrame{Type: frameError, Text: "invalid message format"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", "client", c.id, "error", err)
			}
			return
		}
		s.handleFrame(c, in)
	}
}

// handleFrame runs on the connection's read goroutine, which is the only
// goroutine that touches c.bus. Work that waits on the response delay is
// moved off it.
func (s *Server) handleFrame(c *client, in inFrame) {
	switch in.Type {
	case frameEvent:
		if in.Event == nil {
			s.hub.sendTo(c, outFrame{Type: frameError, Text: "event is required"})
			return
		}
		res := c.bus.Dispatch(*in.Event)
		if len(res.Effects) > 0 {
			s.hub.sendTo(c, outFrame{Type: frameEffects, Effects: res.Effects})
		}
	case frameInput:
		var composer chat.Composer
		composer.SetValue(in.Value)
		s.hub.sendTo(c, overlayFrame(composer.Overlay()))
	case frameSubmit:
		s.hub.sendTo(c, overlayFrame(nil))
		go s.submitFrom(c, in.Value)
	case frameCommand:
		cmd, ok := chat.ParseCommandName(in.Value)
		if !ok {
			s.hub.sendTo(c, outFrame{Type: frameError, Text: "unknown command " + in.Value})
			return
		}
		s.hub.sendTo(c, overlayFrame(nil))
		go s.runFrom(c, cmd)
	case frameLoad:
		if !s.ctrl.State.LoadSession(in.Session) {
			s.hub.sendTo(c, outFrame{Type: frameError, Text: "session not found"})
		}
	default:
		s.hub.sendTo(c, outFrame{Type: frameError, Text: "unknown message type: " + in.Type})
	}
}

func (s *Server) submitFrom(c *client, value string) {
	var composer chat.Composer
	composer.SetValue(value)
	out, err := s.ctrl.Submit(s.ctx, &composer)
	if err != nil {
		s.logger.Error("submit", "client", c.id, "error", err)
		s.hub.sendTo(c, outFrame{Type: frameError, Text: err.Error()})
		return
	}
	if out.Command != nil {
		s.afterCommand(c, *out.Command)
	}
}

func (s *Server) runFrom(c *client, cmd chat.Command) {
	res, err := s.ctrl.Run(s.ctx, nil, cmd)
	if err != nil {
		s.logger.Error("run command", "client", c.id, "command", cmd.String(), "error", err)
		s.hub.sendTo(c, outFrame{Type: frameError, Text: err.Error()})
		return
	}
	s.afterCommand(c, res)
}

func (s *Server) afterCommand(c *client, res chat.Result) {
	if res.Command == chat.CommandExport {
		s.hub.sendTo(c, outFrame{Type: frameDownload, URL: res.Location})
	}
}
