package state

import (
	"fmt"
	"strings"
)

// ShortcutType is a console shortcut answered from the game state alone,
// without a generation call and without entering the conversation log.
type ShortcutType string

const (
	CmdLook      ShortcutType = "look"
	CmdInventory ShortcutType = "inventory"
	CmdNone      ShortcutType = "" // not a shortcut
)

// ParseShortcut recognises "/look", "/l", "/inventory" and "/i".
func ParseShortcut(input string) ShortcutType {
	known := map[string]ShortcutType{
		"look":      CmdLook,
		"location":  CmdLook,
		"l":         CmdLook,
		"inventory": CmdInventory,
		"i":         CmdInventory,
	}
	trimmed := strings.TrimSpace(strings.ToLower(input))
	name, ok := strings.CutPrefix(trimmed, "/")
	if !ok {
		return CmdNone
	}
	return known[name]
}

// TryShortcut answers a shortcut. handled is false for anything else, which
// must go through a normal turn.
func (gs *GameState) TryShortcut(input string) (message string, handled bool) {
	switch ParseShortcut(input) {
	case CmdLook:
		return gs.DescribeLocation(), true
	case CmdInventory:
		return gs.DescribeInventory(), true
	default:
		return "", false
	}
}

// DescribeLocation summarises the scene as currently recorded.
func (gs *GameState) DescribeLocation() string {
	if gs.Location == "" {
		return "You are in an unknown location."
	}
	var sb strings.Builder
	sb.WriteString("You are at " + gs.Location + ".")
	if gs.TimeOfDay != "" {
		when := gs.TimeOfDay
		if gs.Date != "" {
			when += " on " + gs.Date
		}
		sb.WriteString(" It is " + when)
		if gs.Dark {
			sb.WriteString(", and dark")
		}
		sb.WriteString(".")
	}
	if gs.Danger.Valid() {
		sb.WriteString(" Danger: " + gs.Danger.Title() + ".")
	}

	var present []string
	for _, m := range gs.Monsters {
		if m.IsDefeated() {
			continue
		}
		present = append(present, m.Description)
	}
	for _, n := range gs.NPCs {
		present = append(present, n.Name)
	}
	if len(present) > 0 {
		sb.WriteString(" You see: " + strings.Join(present, ", ") + ".")
	}
	return sb.String()
}

// DescribeInventory lists what the player carries.
func (gs *GameState) DescribeInventory() string {
	gold := fmt.Sprintf("%d gold", gs.Player.Gold)
	if len(gs.Player.Inventory) == 0 {
		return "Your inventory is empty. You carry " + gold + "."
	}
	return "You have:\n- " + strings.Join(gs.Player.Inventory, "\n- ") + "\n- " + gold
}
