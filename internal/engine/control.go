package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/plan"
)

// ErrNoStorage is returned by save and load when no storage is configured.
var ErrNoStorage = errors.New("no storage configured")

// handleControl runs a session command. The conversation log and game state
// change only through load.
func (o *Orchestrator) handleControl(ctx context.Context, command string, ctrl plan.Control, action plan.Action) (*TurnResult, error) {
	s := o.session
	result := &TurnResult{Command: command, Control: ctrl}
	o.logger.Debug("Control command", "control", ctrl.String())

	switch ctrl {
	case plan.ControlDebugOn:
		if s.Debug != nil {
			s.Debug.Set(slog.LevelDebug)
		}
		result.Narration = "Debug mode on."
	case plan.ControlDebugOff:
		if s.Debug != nil {
			s.Debug.Set(s.BaseLevel)
		}
		result.Narration = "Debug mode off."
	case plan.ControlSave:
		name, err := o.save(ctx)
		if err != nil {
			return nil, o.abort("saving", err)
		}
		result.SavedAs = name
		result.Narration = fmt.Sprintf("Game saved as %s.", name)
	case plan.ControlLoad:
		name, err := o.load(ctx, strings.TrimSpace(action.Argument))
		if err != nil {
			return nil, o.abort("loading", err)
		}
		result.LoadedFrom = name
		result.Narration = fmt.Sprintf("Loaded %s.", name)
	case plan.ControlQuit:
		name, err := o.save(ctx)
		if err != nil {
			return nil, o.abort("saving before quit", err)
		}
		result.SavedAs = name
		result.Terminated = true
		result.Narration = fmt.Sprintf("Game saved as %s. Farewell, adventurer.", name)
		s.setPhase(PhaseTerminated)
		o.logger.Info("Session quit", "saved_as", name)
	default:
		return nil, fmt.Errorf("unhandled control %s", ctrl)
	}
	return result, nil
}

// Save writes the session as a new unit and returns its name.
func (o *Orchestrator) Save(ctx context.Context) (string, error) {
	if !o.turnMu.TryLock() {
		return "", ErrTurnInProgress
	}
	defer o.turnMu.Unlock()
	return o.save(ctx)
}

func (o *Orchestrator) save(ctx context.Context) (string, error) {
	if o.opts.Storage == nil {
		return "", ErrNoStorage
	}
	unit, err := o.session.Unit()
	if err != nil {
		return "", err
	}
	name, err := o.opts.Storage.SaveUnit(ctx, unit, o.opts.Clock())
	if err != nil {
		return "", err
	}
	o.logger.Info("Session saved", "name", name, "turns", len(unit.Context))
	return name, nil
}

// load replaces the session from a unit. An empty name picks the latest
// unit of the current character.
func (o *Orchestrator) load(ctx context.Context, name string) (string, error) {
	if o.opts.Storage == nil {
		return "", ErrNoStorage
	}
	if name == "" {
		latest, err := o.opts.Storage.LatestUnit(ctx, o.session.Character.Name)
		if err != nil {
			return "", err
		}
		name = latest
	}
	unit, err := o.opts.Storage.LoadUnit(ctx, name)
	if err != nil {
		return "", err
	}
	if err := o.session.restore(unit); err != nil {
		return "", err
	}
	o.logger.Info("Session loaded", "name", name, "turns", len(unit.Context))
	return name, nil
}
