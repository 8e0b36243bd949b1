package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/chat"
	"github.com/jwebster45206/adventure-engine/pkg/prompts"
	"github.com/jwebster45206/adventure-engine/pkg/state"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
)

var (
	// ErrTerminated is returned for any turn after the session has ended.
	ErrTerminated = errors.New("session terminated")
	// ErrTurnInProgress is returned when a turn is submitted while another runs.
	ErrTurnInProgress = errors.New("turn already in progress")
	// ErrEmptyCommand is returned for a blank player command.
	ErrEmptyCommand = errors.New("empty command")
)

// Phase is the turn state machine position of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlanning
	PhaseResolving
	PhaseNarrating
	PhaseSynchronizing
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlanning:
		return "planning_actions"
	case PhaseResolving:
		return "resolving_dice"
	case PhaseNarrating:
		return "generating_narrative"
	case PhaseSynchronizing:
		return "synchronizing_state"
	case PhaseTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Session owns all mutable state of one adventure: the character, the
// authoritative game state, the conversation log and the debug flag.
type Session struct {
	ID        uuid.UUID
	Character actor.Character
	Store     *state.Store
	History   *chat.History

	// Debug is the process log level; the debug control commands flip it
	// between slog.LevelDebug and BaseLevel.
	Debug     *slog.LevelVar
	BaseLevel slog.Level

	mu    sync.Mutex
	phase Phase
}

func newSession(gs *state.GameState, pairs []chat.Pair, opts Options) (*Session, error) {
	store, err := state.NewStore(gs)
	if err != nil {
		return nil, fmt.Errorf("invalid game state: %w", err)
	}
	return &Session{
		ID:        uuid.New(),
		Character: store.Player(),
		Store:     store,
		History:   chat.HistoryFrom(pairs),
		Debug:     opts.Debug,
		BaseLevel: opts.BaseLevel,
		phase:     PhaseIdle,
	}, nil
}

// NewSession starts a brand-new adventure. The starting game state is built
// from the scenario and player descriptions through one structured call.
func NewSession(ctx context.Context, gen services.Generator, scenario, player string, opts Options, logger *slog.Logger) (*Session, error) {
	if strings.TrimSpace(scenario) == "" {
		return nil, errors.New("scenario description is empty")
	}
	sch, err := loadSchemas()
	if err != nil {
		return nil, err
	}

	userText := "SCENARIO:\n" + strings.TrimSpace(scenario)
	if strings.TrimSpace(player) != "" {
		userText += "\n\nPLAYER:\n" + strings.TrimSpace(player)
	}
	req := opts.request([]string{prompts.ScenarioInstructions}, userText, nil, sch.gameState)

	var gs state.GameState
	if err := services.GenerateInto(ctx, gen, req, &gs); err != nil {
		return nil, fmt.Errorf("failed to build starting game state: %w", err)
	}

	s, err := newSession(&gs, nil, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("New adventure started", "session_id", s.ID.String(), "character", s.Character.Name, "location", gs.Location)
	return s, nil
}

// SessionFromUnit resumes a persisted session.
func SessionFromUnit(unit *storage.Unit, opts Options) (*Session, error) {
	if unit == nil {
		return nil, fmt.Errorf("%w: nil unit", storage.ErrMalformed)
	}
	s, err := newSession(&unit.GameState, unit.Context, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrMalformed, err)
	}
	s.Character = unit.Character
	return s, nil
}

// Phase returns the current state machine phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Terminated reports whether the session accepts no more turns.
func (s *Session) Terminated() bool {
	return s.Phase() == PhaseTerminated
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

// Unit captures the whole session as a persisted unit.
func (s *Session) Unit() (*storage.Unit, error) {
	gs, err := s.Store.Snapshot()
	if err != nil {
		return nil, err
	}
	cp, err := deepCopyCharacter(s.Character)
	if err != nil {
		return nil, err
	}
	return &storage.Unit{
		Character: cp,
		GameState: *gs,
		Context:   s.History.Pairs(),
	}, nil
}

// restore replaces character, state and history wholesale. Nothing changes
// when the unit's state is rejected.
func (s *Session) restore(unit *storage.Unit) error {
	store, err := state.NewStore(&unit.GameState)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrMalformed, err)
	}
	cp, err := deepCopyCharacter(unit.Character)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrMalformed, err)
	}
	s.Store = store
	s.Character = cp
	s.History.Replace(unit.Context)
	return nil
}

func deepCopyCharacter(c actor.Character) (actor.Character, error) {
	gs := state.GameState{Player: c}
	cp, err := gs.DeepCopy()
	if err != nil {
		return actor.Character{}, err
	}
	return cp.Player, nil
}
