package chat

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Command is the closed set of slash commands.
type Command int

const (
	CommandClear Command = iota + 1
	CommandExport
	CommandHelp
)

var allCommands = []Command{CommandClear, CommandExport, CommandHelp}

// Commands lists every command in overlay order.
func Commands() []Command {
	out := make([]Command, len(allCommands))
	copy(out, allCommands)
	return out
}

func (c Command) String() string {
	switch c {
	case CommandClear:
		return "/clear"
	case CommandExport:
		return "/export"
	case CommandHelp:
		return "/help"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

func (c Command) Description() string {
	switch c {
	case CommandClear:
		return "clear the conversation"
	case CommandExport:
		return "export the conversation"
	case CommandHelp:
		return "show available commands"
	default:
		return ""
	}
}

// ParseCommand matches the whole trimmed input against the command names.
// Arguments are not accepted: "/clear now" is not a command.
func ParseCommand(input string) (Command, bool) {
	input = strings.TrimSpace(input)
	for _, c := range allCommands {
		if c.String() == input {
			return c, true
		}
	}
	return 0, false
}

// ParseCommandName accepts a name with or without the leading slash.
func ParseCommandName(name string) (Command, bool) {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return ParseCommand(name)
}

func HelpText() string {
	var b strings.Builder
	b.WriteString("Available commands:\n\n")
	for _, c := range allCommands {
		b.WriteString("- `" + c.String() + "` - " + c.Description() + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Exporter delivers a transcript of the given messages and returns where it
// went (a file path, a download name).
type Exporter interface {
	Export(ctx context.Context, messages []Message) (string, error)
}

type Result struct {
	Command  Command
	Location string
}

type Dispatcher struct {
	state    *State
	exporter Exporter
	counter  metric.Int64Counter
}

func NewDispatcher(state *State, exporter Exporter) *Dispatcher {
	d := &Dispatcher{state: state, exporter: exporter}
	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"chat.commands",
		metric.WithDescription("Slash commands executed"),
	)
	if err == nil {
		d.counter = counter
	}
	return d
}

func (d *Dispatcher) Execute(ctx context.Context, cmd Command) (Result, error) {
	res := Result{Command: cmd}
	switch cmd {
	case CommandClear:
		d.state.Clear()
	case CommandExport:
		if d.exporter == nil {
			return res, fmt.Errorf("export: no exporter configured")
		}
		loc, err := d.exporter.Export(ctx, d.state.Messages())
		if err != nil {
			return res, fmt.Errorf("export: %w", err)
		}
		res.Location = loc
	case CommandHelp:
		d.state.AddMessage(HelpText(), TypeSystem)
	default:
		return res, fmt.Errorf("unknown command %s", cmd)
	}
	if d.counter != nil {
		d.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("command", cmd.String())))
	}
	return res, nil
}
