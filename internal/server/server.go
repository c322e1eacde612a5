// Package server serves the marketing page with the chat widget. The page's
// interaction handlers run here, one page.Bus per connected page, and the
// shared conversation is pushed to every page over a websocket.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"chatwidget/internal/chat"
	"chatwidget/internal/page"
	"chatwidget/internal/render"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ExportPath is where the page downloads chat-history.txt from.
const ExportPath = "/chat/export"

type Config struct {
	Addr           string
	AllowAll       bool // allow all CORS origins (dev mode)
	HighlightStyle string
	ResponseDelay  time.Duration
}

type Server struct {
	cfg        Config
	ctrl       *chat.Controller
	html       *render.HTML
	hub        *Hub
	landing    page.Landing
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// downloadExporter hands exports to the browser: the location it returns is
// the attachment URL, which the page fetches.
type downloadExporter struct{}

func (downloadExporter) Export(ctx context.Context, _ []chat.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return ExportPath, nil
}

// New wires the conversation in state to the page. The server becomes the
// state's view.
func New(cfg Config, state *chat.State, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	html := render.NewHTML(cfg.HighlightStyle)
	hub := NewHub(html, logger)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:     cfg,
		html:    html,
		hub:     hub,
		landing: page.DefaultLanding(),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.ctrl = chat.NewController(state, downloadExporter{},
		chat.WithDelay(cfg.ResponseDelay),
		chat.WithIndicator(hub),
	)
	state.SetView(hub)
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// The websocket outlives any request timeout.
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", s.handleIndex)
		r.Post("/contact", s.handleContact)

		r.Route("/chat", func(r chi.Router) {
			r.Get("/messages", s.handleMessages)
			r.Get("/history", s.handleHistory)
			r.Post("/submit", s.handleSubmit)
			r.Post("/commands/{name}", s.handleCommand)
			r.Post("/sessions/{id}/load", s.handleLoadSession)
			r.Get("/export", s.handleExport)
		})
	})

	return r
}

func (s *Server) Router() chi.Router { return s.router }

func (s *Server) Hub() *Hub { return s.hub }

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("chatwidget server listening", "addr", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the listener and abandons pending replies.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
