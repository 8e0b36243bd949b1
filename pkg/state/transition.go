package state

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/adventure-engine/pkg/actor"
)

// CheckTransition reports whether next may directly follow prev.
//
// Spell effects carried over from prev may only lose minutes, and the
// player cannot spend more gold than prev carried. Any violation wraps
// ErrInvariant.
//
// The returned items are those the player newly holds more than one of.
// Narration can grant multiples, so they are not an error.
func CheckTransition(prev, next *GameState) ([]string, error) {
	if prev == nil || next == nil {
		return nil, fmt.Errorf("%w: nil game state", ErrInvariant)
	}

	if err := checkEffects(&prev.Player, &next.Player); err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}
	for i := range next.NPCs {
		npc := &next.NPCs[i]
		for j := range prev.NPCs {
			if prev.NPCs[j].Name == npc.Name {
				if err := checkEffects(&prev.NPCs[j], npc); err != nil {
					return nil, fmt.Errorf("npc %q: %w", npc.Name, err)
				}
				break
			}
		}
	}

	if spent := prev.Player.Gold - next.Player.Gold; spent > 0 {
		wallet := prev.Player
		if err := wallet.SpendGold(spent); err != nil {
			return nil, fmt.Errorf("%w: player: %v", ErrInvariant, err)
		}
	}

	return newDuplicates(&prev.Player, &next.Player), nil
}

func checkEffects(prev, next *actor.Character) error {
	before := make(map[string]int, len(prev.SpellEffects))
	for _, e := range prev.SpellEffects {
		before[e.Effect] = max(before[e.Effect], e.MinutesRemaining)
	}
	for _, e := range next.SpellEffects {
		was, ok := before[e.Effect]
		if ok && e.MinutesRemaining > was {
			return fmt.Errorf("%w: effect %q grew from %d to %d minutes", ErrInvariant, e.Effect, was, e.MinutesRemaining)
		}
	}
	return nil
}

// newDuplicates walks next's inventory against a copy of prev's. Items left
// over after matching prev are gains; a gain is a duplicate when the item
// was already carried or is gained twice.
func newDuplicates(prev, next *actor.Character) []string {
	carried := actor.Character{Inventory: append([]string(nil), prev.Inventory...)}
	var gained actor.Character
	var dups []string
	for _, item := range next.Inventory {
		if carried.RemoveItem(item) {
			continue
		}
		if !gained.AddItem(item, false) || prev.HasItem(item) {
			if !slices.Contains(dups, item) {
				dups = append(dups, item)
			}
		}
	}
	return dups
}
