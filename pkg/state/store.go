package state

import (
	"fmt"

	"github.com/jwebster45206/adventure-engine/pkg/actor"
)

// Store holds the single authoritative GameState of a session.
// The state is only ever replaced wholesale.
type Store struct {
	current *GameState
}

// NewStore creates a store from an initial state. The state is validated and
// normalized like any later replacement.
func NewStore(initial *GameState) (*Store, error) {
	s := &Store{}
	if err := s.Replace(initial); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() (*GameState, error) {
	if s.current == nil {
		return nil, fmt.Errorf("store is empty")
	}
	return s.current.DeepCopy()
}

// Replace validates next, normalizes a private copy of it and swaps it in.
// On error the current state is unchanged.
func (s *Store) Replace(next *GameState) error {
	if next == nil {
		return fmt.Errorf("%w: nil game state", ErrInvariant)
	}
	cp, err := next.DeepCopy()
	if err != nil {
		return err
	}
	if err := cp.Validate(); err != nil {
		return err
	}
	cp.Normalize()
	s.current = cp
	return nil
}

// Player returns a copy of the player character.
func (s *Store) Player() actor.Character {
	if s.current == nil {
		return actor.Character{}
	}
	cp, err := s.current.DeepCopy()
	if err != nil {
		return s.current.Player
	}
	return cp.Player
}
