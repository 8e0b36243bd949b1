package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jwebster45206/adventure-engine/pkg/actor"
)

// ErrInvariant is returned when a game state breaks a rule that cannot be
// repaired by clamping.
var ErrInvariant = errors.New("game state invariant violated")

// GameState is the structured state of one adventure session.
// Field order is the serialization order.
type GameState struct {
	Player    actor.Character   `json:"player"`
	Location  string            `json:"location"`
	Danger    DangerLevel       `json:"danger_level"`
	TimeOfDay string            `json:"time_of_day"`
	Sunrise   string            `json:"sunrise"`
	Sunset    string            `json:"sunset"`
	Date      string            `json:"date"`
	Dark      bool              `json:"dark"`
	Monsters  []actor.Monster   `json:"monsters"`
	NPCs      []actor.Character `json:"npcs"`
}

// DeepCopy creates a deep copy of the GameState
func (gs *GameState) DeepCopy() (*GameState, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gamestate: %w", err)
	}

	var cp GameState
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &cp, nil
}

// Validate checks the rules that clamping cannot fix.
func (gs *GameState) Validate() error {
	if !gs.Danger.Valid() {
		return fmt.Errorf("%w: unknown danger level %q", ErrInvariant, gs.Danger)
	}

	seen := make(map[string]bool, len(gs.Monsters))
	for _, m := range gs.Monsters {
		if m.ID == "" {
			return fmt.Errorf("%w: monster without id", ErrInvariant)
		}
		if seen[m.ID] {
			return fmt.Errorf("%w: duplicate monster id %q", ErrInvariant, m.ID)
		}
		seen[m.ID] = true
	}

	if err := validateCharacter(&gs.Player); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	for i := range gs.NPCs {
		if err := validateCharacter(&gs.NPCs[i]); err != nil {
			return fmt.Errorf("npc %q: %w", gs.NPCs[i].Name, err)
		}
	}
	return nil
}

func validateCharacter(c *actor.Character) error {
	if c.MaxHP < 0 {
		return fmt.Errorf("%w: negative max_hp %d", ErrInvariant, c.MaxHP)
	}
	for _, slot := range c.Magic.SpellSlots {
		if slot.Current < 0 || slot.Max < 0 || slot.Current > slot.Max {
			return fmt.Errorf("%w: spell slot level %d has %d/%d", ErrInvariant, slot.Level, slot.Current, slot.Max)
		}
	}
	return nil
}

// Normalize clamps HP into [0, MaxHP], gold at 0 and drops expired effects
// for the player and every NPC.
func (gs *GameState) Normalize() {
	normalizeCharacter(&gs.Player)
	for i := range gs.NPCs {
		normalizeCharacter(&gs.NPCs[i])
	}
	for i := range gs.Monsters {
		if gs.Monsters[i].Health < 0 {
			gs.Monsters[i].Health = 0
		}
	}
}

func normalizeCharacter(c *actor.Character) {
	c.ClampHP()
	if c.Gold < 0 {
		c.Gold = 0
	}
	c.DropExpiredEffects()
}
