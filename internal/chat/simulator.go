package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultDelay = time.Second

	CannedReply  = "This is a simulated AI response. In a real application this is where the AI service would be called."
	ApologyReply = "Sorry, something went wrong. Please try again later."
)

// Indicator is the loading indicator shown while a reply is pending.
type Indicator interface {
	SetLoading(visible bool)
}

// ReplyFunc produces the reply text for a user input. The default ignores the
// input and returns CannedReply.
type ReplyFunc func(ctx context.Context, input string) (string, error)

func cannedReply(context.Context, string) (string, error) {
	return CannedReply, nil
}

type Simulator struct {
	state     *State
	indicator Indicator
	delay     time.Duration
	reply     ReplyFunc
	after     func(time.Duration) <-chan time.Time
	tracer    trace.Tracer
}

type SimulatorOption func(*Simulator)

func WithDelay(d time.Duration) SimulatorOption {
	return func(s *Simulator) { s.delay = d }
}

func WithIndicator(ind Indicator) SimulatorOption {
	return func(s *Simulator) { s.indicator = ind }
}

func WithReply(fn ReplyFunc) SimulatorOption {
	return func(s *Simulator) { s.reply = fn }
}

func WithAfter(after func(time.Duration) <-chan time.Time) SimulatorOption {
	return func(s *Simulator) { s.after = after }
}

func NewSimulator(state *State, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		state:  state,
		delay:  DefaultDelay,
		reply:  cannedReply,
		after:  time.After,
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetIndicator replaces the loading indicator. Call it before the first Send.
func (s *Simulator) SetIndicator(ind Indicator) {
	s.indicator = ind
}

// Send runs the whole exchange and blocks for the response delay. Blank input
// is ignored and reported as false. Concurrent calls are not serialized.
func (s *Simulator) Send(ctx context.Context, input string, composer *Composer) bool {
	content, ok := s.Begin(input, composer)
	if !ok {
		return false
	}
	defer s.Finish()

	reply, err := s.Respond(ctx, content)
	s.Complete(reply, err)
	return true
}

// Begin appends the user message, clears the composer, shows the loading
// indicator and marks the state as generating. Every successful Begin must be
// paired with Finish.
func (s *Simulator) Begin(input string, composer *Composer) (string, bool) {
	content := strings.TrimSpace(input)
	if content == "" {
		return "", false
	}
	s.state.AddMessage(content, TypeUser)
	if composer != nil {
		composer.Clear()
	}
	if s.indicator != nil {
		s.indicator.SetLoading(true)
	}
	s.state.setGenerating(true)
	return content, true
}

// Respond waits for the delay and then asks the reply function. It touches no
// state and is safe to run off the UI goroutine.
func (s *Simulator) Respond(ctx context.Context, content string) (reply string, err error) {
	ctx, span := s.tracer.Start(ctx, "simulate_response",
		trace.WithAttributes(attribute.Int("input.length", len(content))))
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			reply, err = "", fmt.Errorf("reply panicked: %v", r)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		span.SetStatus(codes.Error, "cancelled")
		return "", ctx.Err()
	case <-s.after(s.delay):
	}

	reply, err = s.reply(ctx, content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return reply, nil
}

// Complete appends the reply, or the apology when err is non-nil.
func (s *Simulator) Complete(reply string, err error) {
	if err != nil {
		s.state.logger.Warn("simulated response failed", "error", err)
		s.state.AddMessage(ApologyReply, TypeAI)
		return
	}
	s.state.AddMessage(reply, TypeAI)
}

func (s *Simulator) Finish() {
	if s.indicator != nil {
		s.indicator.SetLoading(false)
	}
	s.state.setGenerating(false)
}
