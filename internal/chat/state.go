package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "chatwidget/internal/chat"

// View receives snapshots after every mutation, in mutation order. Calls
// happen on the goroutine that performed the mutation, after the state lock is
// released; a view must not mutate the State it is attached to.
type View interface {
	RenderMessages(messages []Message)
	RenderHistory(history []Session)
}

type HistorySaver interface {
	Save(history []Session) error
}

type State struct {
	// notifyMu is held from snapshot to the end of view delivery, so views
	// see snapshots in mutation order.
	notifyMu sync.Mutex

	mu             sync.Mutex
	messages       []Message
	history        []Session
	isGenerating   bool
	currentSession int64
	lastSessionID  int64

	view    View
	saver   HistorySaver
	now     func() time.Time
	logger  *slog.Logger
	counter metric.Int64Counter
}

type Option func(*State)

func WithView(v View) Option {
	return func(s *State) { s.view = v }
}

func WithSaver(saver HistorySaver) Option {
	return func(s *State) { s.saver = saver }
}

func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *State) { s.logger = logger }
}

// NewState starts with an empty message list and the given history, which is
// normally whatever the history store loaded.
func NewState(history []Session, opts ...Option) *State {
	s := &State{
		history: cloneSessions(history),
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, sess := range s.history {
		if sess.ID > s.lastSessionID {
			s.lastSessionID = sess.ID
		}
	}
	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"chat.messages",
		metric.WithDescription("Messages appended to the conversation"),
	)
	if err == nil {
		s.counter = counter
	}
	return s
}

// SetView replaces the view. Used by surfaces that are built after the state.
func (s *State) SetView(v View) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// AddMessage appends a message stamped with the current time, then snapshots
// the whole message list as a brand-new history session and persists the
// full history. Every call creates one session, so history grows by one entry
// per message rather than one per conversation.
func (s *State) AddMessage(content string, typ MessageType) Message {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	now := s.now()
	msg := Message{
		Content:   content,
		Type:      typ,
		Timestamp: FormatTime(now),
	}
	s.messages = append(s.messages, msg)
	s.saveToHistoryLocked(now)
	messages := cloneMessages(s.messages)
	history := cloneSessions(s.history)
	view := s.view
	s.mu.Unlock()

	if s.counter != nil {
		s.counter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("type", string(typ))))
	}
	if view != nil {
		view.RenderMessages(messages)
		view.RenderHistory(history)
	}
	return msg
}

func (s *State) saveToHistoryLocked(now time.Time) {
	id := now.UnixMilli()
	if id <= s.lastSessionID {
		id = s.lastSessionID + 1
	}
	s.lastSessionID = id
	s.history = append(s.history, Session{
		ID:          id,
		Messages:    cloneMessages(s.messages),
		LastUpdated: FormatDateTime(now),
	})
	if s.saver == nil {
		return
	}
	if err := s.saver.Save(s.history); err != nil {
		s.logger.Warn("save history", "error", err, "sessions", len(s.history))
	}
}

// Clear empties the visible conversation. History is left alone.
func (s *State) Clear() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	s.messages = nil
	view := s.view
	s.mu.Unlock()

	if view != nil {
		view.RenderMessages(nil)
	}
}

// LoadSession replaces the message list with a copy of the session's
// snapshot. It reports false when no session has that id.
func (s *State) LoadSession(id int64) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	var found *Session
	for i := range s.history {
		if s.history[i].ID == id {
			found = &s.history[i]
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		return false
	}
	s.messages = cloneMessages(found.Messages)
	s.currentSession = id
	messages := cloneMessages(s.messages)
	view := s.view
	s.mu.Unlock()

	if view != nil {
		view.RenderMessages(messages)
	}
	return true
}

func (s *State) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMessages(s.messages)
}

func (s *State) History() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSessions(s.history)
}

func (s *State) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isGenerating
}

func (s *State) setGenerating(v bool) {
	s.mu.Lock()
	s.isGenerating = v
	s.mu.Unlock()
}

// CurrentSession returns the id of the last session loaded into the
// conversation, if any.
func (s *State) CurrentSession() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSession, s.currentSession != 0
}
