package plan

import "strings"

// Control is a reserved action type that manipulates the session instead of
// the story.
type Control int

const (
	ControlNone Control = iota
	ControlSave
	ControlLoad
	ControlQuit
	ControlDebugOn
	ControlDebugOff
)

// Reserved action_type tokens.
const (
	TokenSave     = "save_game"
	TokenLoad     = "load_game"
	TokenQuit     = "quit_game"
	TokenDebugOn  = "debug_mode_on"
	TokenDebugOff = "debug_mode_off"
)

var controlTokens = map[string]Control{
	TokenSave:     ControlSave,
	TokenLoad:     ControlLoad,
	TokenQuit:     ControlQuit,
	TokenDebugOn:  ControlDebugOn,
	TokenDebugOff: ControlDebugOff,
}

// DecodeControl maps an action type to its Control, or ControlNone.
func DecodeControl(actionType string) Control {
	if c, ok := controlTokens[strings.ToLower(strings.TrimSpace(actionType))]; ok {
		return c
	}
	return ControlNone
}

// String returns the reserved token, or "none".
func (c Control) String() string {
	switch c {
	case ControlSave:
		return TokenSave
	case ControlLoad:
		return TokenLoad
	case ControlQuit:
		return TokenQuit
	case ControlDebugOn:
		return TokenDebugOn
	case ControlDebugOff:
		return TokenDebugOff
	default:
		return "none"
	}
}

// ReservedTokens lists the control tokens in a fixed order for prompts.
func ReservedTokens() []string {
	return []string{TokenSave, TokenLoad, TokenQuit, TokenDebugOn, TokenDebugOff}
}
