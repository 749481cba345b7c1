package debate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/ticketdebate/internal/logging"
	"github.com/ppiankov/ticketdebate/internal/model"
)

// DefaultMaxRoundsPerSide caps each side's non-concession messages
const DefaultMaxRoundsPerSide = 5

// EngineConfig configures the turn loop
type EngineConfig struct {
	MaxRoundsPerSide int
}

// Observer is told about every appended entry and the terminal state.
// Calls happen on the run's goroutine, in transcript order.
type Observer interface {
	OnEntry(state model.DebateState, entry model.Entry, fallback bool)
	OnFinish(state model.DebateState)
}

// Observers fans out to each non-nil observer in order
type Observers []Observer

func (o Observers) OnEntry(state model.DebateState, entry model.Entry, fallback bool) {
	for _, obs := range o {
		if obs != nil {
			obs.OnEntry(state, entry, fallback)
		}
	}
}

func (o Observers) OnFinish(state model.DebateState) {
	for _, obs := range o {
		if obs != nil {
			obs.OnFinish(state)
		}
	}
}

// Input is the frozen bundle one run debates over
type Input struct {
	Ticket  model.TicketInfo
	Context model.Context

	// Preamble entries (validation notices) open the transcript
	Preamble []model.Entry

	// Observer receives this run's entries in addition to the engine's observers
	Observer Observer
}

// Engine drives debates. It holds no per-run state and is safe to share.
type Engine struct {
	maxRounds int
	observers Observers
	logger    *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithObserver adds an observer notified on every run
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine. A cap below one is replaced with the default.
func NewEngine(cfg EngineConfig, opts ...Option) *Engine {
	e := &Engine{
		maxRounds: cfg.MaxRoundsPerSide,
		logger:    logging.NewNop(),
	}
	if e.maxRounds < 1 {
		e.maxRounds = DefaultMaxRoundsPerSide
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxRoundsPerSide returns the configured cap
func (e *Engine) MaxRoundsPerSide() int {
	return e.maxRounds
}

// ErrGeneratorSide is returned when a generator is passed for the wrong side
var ErrGeneratorSide = errors.New("generator side mismatch")

// Run alternates pro and anti turns until a side concedes or both reach the
// cap. Generator failures are replaced with fallback arguments and never
// abort the run. On cancellation the state reached so far is returned with
// ctx.Err().
func (e *Engine) Run(ctx context.Context, in Input, pro, anti Generator) (model.DebateState, error) {
	if pro == nil || anti == nil {
		return model.DebateState{}, fmt.Errorf("%w: both generators are required", ErrGeneratorSide)
	}
	if pro.Side() != model.SidePro || anti.Side() != model.SideAnti {
		return model.DebateState{}, fmt.Errorf("%w: got %q and %q", ErrGeneratorSide, pro.Side(), anti.Side())
	}

	observers := append(Observers{in.Observer}, e.observers...)
	state := model.NewDebateState(in.Preamble).WithPhase(model.PhaseProTurn)

	for {
		if e.Terminal(state) {
			state = state.WithPhase(model.PhaseTerminal)
			e.logger.Info("debate finished",
				"outcome", state.Outcome(),
				"pro_messages", state.ProMessageCount,
				"anti_messages", state.AntiMessageCount,
			)
			observers.OnFinish(state)
			return state, nil
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		gen := pro
		if state.CurrentTurn == model.SideAnti {
			gen = anti
		}

		entry, fallback, err := e.turn(ctx, state, gen, in)
		if err != nil {
			return state, err
		}

		state = state.Append(entry)
		observers.OnEntry(state, entry, fallback)
		if entry.Concession {
			continue
		}

		state = state.Flip()
		if state.CurrentTurn == model.SidePro {
			state = state.WithPhase(model.PhaseProTurn)
		} else {
			state = state.WithPhase(model.PhaseAntiTurn)
		}
	}
}

// Terminal reports whether no further turn may be taken
func (e *Engine) Terminal(state model.DebateState) bool {
	if state.Conceded(model.SidePro) || state.Conceded(model.SideAnti) {
		return true
	}
	return state.ProMessageCount >= e.maxRounds && state.AntiMessageCount >= e.maxRounds
}

// turn asks gen for one message. The only error is cancellation observed
// after a failed generator call.
func (e *Engine) turn(ctx context.Context, state model.DebateState, gen Generator, in Input) (model.Entry, bool, error) {
	side := gen.Side()
	brief := Brief{Ticket: in.Ticket, Context: in.Context, Transcript: state.Entries}

	var (
		result   Result
		err      error
		rebuttal bool
	)
	last, hasOpponent := state.LastFrom(side.Opponent())
	if state.MessageCount(side) > 0 && hasOpponent {
		rebuttal = true
		result, err = gen.Rebut(ctx, last.Content, brief)
	} else {
		result, err = gen.Generate(ctx, brief)
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.Entry{}, false, ctxErr
		}
		text, _ := FallbackArgument(side, rebuttal)
		e.logger.Warn("argument generation failed, using fallback",
			"side", side,
			"rebuttal", rebuttal,
			"error", err,
		)
		return model.Entry{Side: side, Content: text}, true, nil
	}

	switch r := result.(type) {
	case Concession:
		e.logger.Info("side conceded", "side", side, "reason", r.Reason)
		return model.Entry{Side: side, Content: r.Reason, Concession: true}, false, nil
	case Argument:
		if strings.TrimSpace(r.Text) == "" {
			break
		}
		e.logger.Debug("argument generated", "side", side, "rebuttal", rebuttal, "chars", len(r.Text))
		return model.Entry{Side: side, Content: r.Text}, false, nil
	}

	text, _ := FallbackArgument(side, rebuttal)
	e.logger.Warn("generator returned no argument, using fallback", "side", side)
	return model.Entry{Side: side, Content: text}, true, nil
}
