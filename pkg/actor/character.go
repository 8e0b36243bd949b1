package actor

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/d20"
)

// Abilities represents the six core ability scores
type Abilities struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// ToAttributes converts Abilities to a map for d20.Actor compatibility
func (a *Abilities) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     a.Strength,
		"dexterity":    a.Dexterity,
		"constitution": a.Constitution,
		"intelligence": a.Intelligence,
		"wisdom":       a.Wisdom,
		"charisma":     a.Charisma,
	}
}

// Modifier returns the ability modifier for a score, rounding down.
func Modifier(score int) int {
	m := score - 10
	if m < 0 {
		return (m - 1) / 2
	}
	return m / 2
}

// Proficiencies are sets of names the character is proficient in.
type Proficiencies struct {
	Skills       []string `json:"skills"`
	Weapons      []string `json:"weapons"`
	SavingThrows []string `json:"saving_throws"`
}

// SpellSlot tracks the remaining slots for one spell level.
type SpellSlot struct {
	Level   int `json:"level"`
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Magic holds what a caster knows and can still cast.
type Magic struct {
	SpellsKnown   []string    `json:"spells_known"`
	CantripsKnown []string    `json:"cantrips_known"`
	SpellSlots    []SpellSlot `json:"spell_slots"`
}

// SpellEffect is an ongoing effect with a countdown in game minutes.
type SpellEffect struct {
	Effect           string `json:"effect"`
	MinutesRemaining int    `json:"minutes_remaining"`
}

// Character is a player character or an NPC.
// Field order is the serialization order.
type Character struct {
	Name          string        `json:"name"`
	Pronouns      string        `json:"pronouns"`
	Race          string        `json:"race"`
	Class         string        `json:"class"`
	Level         int           `json:"level"`
	XP            int           `json:"xp"`
	HP            int           `json:"hp"`
	MaxHP         int           `json:"max_hp"`
	Status        string        `json:"status"`
	Gold          int           `json:"gold"`
	AC            int           `json:"ac"`
	Abilities     Abilities     `json:"abilities"`
	Proficiencies Proficiencies `json:"proficiencies"`
	Magic         Magic         `json:"magic"`
	SpellEffects  []SpellEffect `json:"spell_effects"`
	Inventory     []string      `json:"inventory"`
}

// Actor builds a d20.Actor from the character sheet
func (c *Character) Actor() (*d20.Actor, error) {
	a, err := d20.NewActor(c.Name).
		WithHP(c.MaxHP).
		WithAC(c.AC).
		WithAttributes(c.Abilities.ToAttributes()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	// Set current HP if different from max
	if c.HP != c.MaxHP && c.HP > 0 {
		if err := a.SetHP(c.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return a, nil
}

// IsDead returns true once HP has reached 0.
func (c *Character) IsDead() bool {
	return c.HP <= 0
}

// ClampHP keeps HP within [0, MaxHP].
func (c *Character) ClampHP() {
	if c.MaxHP < 0 {
		c.MaxHP = 0
	}
	c.HP = max(0, min(c.HP, c.MaxHP))
}

// HasItem reports whether the inventory holds at least one of item.
func (c *Character) HasItem(item string) bool {
	return slices.Contains(c.Inventory, item)
}

// AddItem appends item to the inventory. A second copy of an item already
// carried is only added when allowMultiple is set.
func (c *Character) AddItem(item string, allowMultiple bool) bool {
	if item == "" {
		return false
	}
	if !allowMultiple && c.HasItem(item) {
		return false
	}
	c.Inventory = append(c.Inventory, item)
	return true
}

// RemoveItem removes one copy of item, keeping the order of the rest.
func (c *Character) RemoveItem(item string) bool {
	i := slices.Index(c.Inventory, item)
	if i < 0 {
		return false
	}
	c.Inventory = slices.Delete(c.Inventory, i, i+1)
	return true
}

// SpendGold deducts amount if the character can afford it.
func (c *Character) SpendGold(amount int) error {
	if amount < 0 {
		return fmt.Errorf("cannot spend a negative amount: %d", amount)
	}
	if amount > c.Gold {
		return fmt.Errorf("cannot spend %d gold, only %d carried", amount, c.Gold)
	}
	c.Gold -= amount
	return nil
}

// TickSpellEffects advances all effects by minutes and drops the expired ones.
func (c *Character) TickSpellEffects(minutes int) {
	if minutes < 0 {
		minutes = 0
	}
	if c.SpellEffects == nil {
		return
	}
	kept := make([]SpellEffect, 0, len(c.SpellEffects))
	for _, e := range c.SpellEffects {
		e.MinutesRemaining -= minutes
		if e.MinutesRemaining > 0 {
			kept = append(kept, e)
		}
	}
	c.SpellEffects = kept
}

// DropExpiredEffects removes effects that have no time left.
func (c *Character) DropExpiredEffects() {
	c.TickSpellEffects(0)
}
