package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jwebster45206/adventure-engine/internal/logger"
	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/chat"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/prompts"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

// TurnResult describes one completed turn or control command.
type TurnResult struct {
	Command string
	Control plan.Control

	// Narration is the player-visible account. Omniscient is kept for
	// debugging and never shown to the player.
	Narration  string
	Omniscient string
	Resolution *Resolution

	SavedAs    string
	LoadedFrom string

	Terminated bool
	Closing    string
}

// Orchestrator runs the turn state machine of one session. At most one turn
// is in flight at a time.
type Orchestrator struct {
	session  *Session
	gen      services.Generator
	resolver *Resolver
	opts     Options
	logger   *slog.Logger

	turnMu sync.Mutex
}

// NewOrchestrator creates an orchestrator for session.
func NewOrchestrator(session *Session, gen services.Generator, opts Options, log *slog.Logger) *Orchestrator {
	opts = opts.withDefaults()
	log = logger.WithSessionID(log, session.ID.String())
	return &Orchestrator{
		session:  session,
		gen:      gen,
		resolver: NewResolver(gen, opts, log),
		opts:     opts,
		logger:   log,
	}
}

// Session returns the session driven by the orchestrator.
func (o *Orchestrator) Session() *Session {
	return o.session
}

// Begin plays the opening turn of a new adventure.
func (o *Orchestrator) Begin(ctx context.Context) (*TurnResult, error) {
	return o.Turn(ctx, prompts.OpeningCommand)
}

// Turn runs one player command to completion. Any failure leaves the game
// state and conversation log exactly as they were and the session idle.
func (o *Orchestrator) Turn(ctx context.Context, command string) (*TurnResult, error) {
	if !o.turnMu.TryLock() {
		return nil, ErrTurnInProgress
	}
	defer o.turnMu.Unlock()

	s := o.session
	if s.Terminated() {
		return nil, ErrTerminated
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, ErrEmptyCommand
	}
	defer func() {
		if !s.Terminated() {
			s.setPhase(PhaseIdle)
		}
	}()

	prev, err := s.Store.Snapshot()
	if err != nil {
		return nil, err
	}
	character := s.Character
	history := s.History.Last(o.opts.HistoryWindow)

	s.setPhase(PhasePlanning)
	o.logger.Debug("Turn started", "phase", s.Phase().String(), "command", command)
	p, err := o.resolver.Plan(ctx, command, &character, prev, history)
	if err != nil {
		return nil, o.abort("planning", err)
	}
	if ctrl := p.Control(); ctrl != plan.ControlNone {
		return o.handleControl(ctx, command, ctrl, p.First())
	}

	s.setPhase(PhaseResolving)
	res, err := o.resolver.ResolvePlan(p)
	if err != nil {
		return nil, o.abort("resolving dice", err)
	}

	s.setPhase(PhaseNarrating)
	narration, err := o.narrate(ctx, command, prev, history, res.Guidance)
	if err != nil {
		return nil, o.abort("narrating", err)
	}

	s.setPhase(PhaseSynchronizing)
	next, err := o.synchronize(ctx, prev, narration.Omniscient)
	if err != nil {
		return nil, o.abort("synchronizing state", err)
	}

	// Commit. Replace validates first, so history only grows on success.
	dups, err := state.CheckTransition(prev, next)
	if err != nil {
		return nil, o.abort("committing state", err)
	}
	if len(dups) > 0 {
		o.logger.Warn("Inventory gained duplicate items", "items", dups)
	}
	if err := s.Store.Replace(next); err != nil {
		return nil, o.abort("committing state", err)
	}
	s.History.Append(command, narration.Player)
	s.Character = s.Store.Player()

	result := &TurnResult{
		Command:    command,
		Narration:  narration.Player,
		Omniscient: narration.Omniscient,
		Resolution: res,
	}
	o.logger.Debug("Turn committed", "turn", s.History.Len(), "hp", s.Character.HP, "location", next.Location)

	if s.Character.IsDead() {
		result.Closing = o.closing(ctx, command)
		result.Terminated = true
		s.setPhase(PhaseTerminated)
		o.logger.Info("Player died, session terminated")
	}
	return result, nil
}

func (o *Orchestrator) abort(stage string, err error) error {
	o.logger.Warn("Turn aborted", "stage", stage, "error", err)
	return fmt.Errorf("%s: %w", stage, err)
}

func (o *Orchestrator) narrate(ctx context.Context, command string, gs *state.GameState, history []chat.Pair, guidance string) (*Narration, error) {
	sch, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	character := o.session.Character
	system, err := prompts.New().
		WithRules().
		WithText(prompts.NarrationInstructions).
		WithCharacter(&character).
		WithGameState(gs).
		WithGuidance(guidance).
		Build()
	if err != nil {
		return nil, err
	}

	var n Narration
	if err := services.GenerateInto(ctx, o.gen, o.opts.request(system, command, history, sch.narration), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// synchronize asks for the complete next state without any conversation
// context: only the previous state and the omniscient account.
func (o *Orchestrator) synchronize(ctx context.Context, prev *state.GameState, omniscient string) (*state.GameState, error) {
	sch, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	block, err := prompts.GameStateBlock("PREVIOUS GAME STATE", prev)
	if err != nil {
		return nil, err
	}
	userText := block + "\n\nEVENTS:\n" + omniscient

	var next state.GameState
	req := o.opts.request([]string{prompts.StateSyncInstructions}, userText, nil, sch.gameState)
	if err := services.GenerateInto(ctx, o.gen, req, &next); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return &next, nil
}

// closing requests the final narration after the player died. A failure is
// logged and the session still terminates.
func (o *Orchestrator) closing(ctx context.Context, command string) string {
	gs, err := o.session.Store.Snapshot()
	if err != nil {
		o.logger.Error("Failed to snapshot state for closing narration", "error", err)
		return ""
	}
	character := o.session.Character
	system, err := prompts.New().
		WithRules().
		WithText(prompts.ClosingInstructions).
		WithCharacter(&character).
		WithGameState(gs).
		Build()
	if err != nil {
		o.logger.Error("Failed to build closing prompt", "error", err)
		return ""
	}

	resp, err := o.gen.Generate(ctx, o.opts.request(system, command, o.session.History.Last(o.opts.HistoryWindow), nil))
	if err != nil {
		var genErr *services.Error
		if errors.As(err, &genErr) {
			o.logger.Error("Closing narration failed", "provider", genErr.Provider, "status", genErr.StatusCode, "error", err)
		} else {
			o.logger.Error("Closing narration failed", "error", err)
		}
		return ""
	}
	return strings.TrimSpace(resp.Text)
}
