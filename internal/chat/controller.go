package chat

import (
	"context"
	"fmt"
)

// Controller owns the conversation and routes composer actions either to the
// command dispatcher or to the response simulator.
type Controller struct {
	State      *State
	Dispatcher *Dispatcher
	Simulator  *Simulator
}

func NewController(state *State, exporter Exporter, opts ...SimulatorOption) *Controller {
	return &Controller{
		State:      state,
		Dispatcher: NewDispatcher(state, exporter),
		Simulator:  NewSimulator(state, opts...),
	}
}

// Outcome describes what a submit did.
type Outcome struct {
	Sent    bool
	Command *Result
}

// Submit takes the composer's text. An exact command name runs the command
// and clears the composer; anything else goes through the simulator, which
// blocks for the response delay. The overlay is closed first either way.
func (c *Controller) Submit(ctx context.Context, composer *Composer) (Outcome, error) {
	composer.CloseOverlay()
	if cmd, ok := ParseCommand(composer.Value()); ok {
		res, err := c.Run(ctx, composer, cmd)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Command: &res}, nil
	}
	sent := c.Simulator.Send(ctx, composer.Value(), composer)
	return Outcome{Sent: sent}, nil
}

// Run executes a command chosen from the overlay (or typed in full) and
// clears the composer.
func (c *Controller) Run(ctx context.Context, composer *Composer, cmd Command) (Result, error) {
	res, err := c.Dispatcher.Execute(ctx, cmd)
	if composer != nil {
		composer.Clear()
	}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", cmd, err)
	}
	return res, nil
}
