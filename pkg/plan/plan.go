package plan

import "strings"

// Action is one step of a turn's plan: the player's action first, then NPC
// and monster reactions, then the environment.
type Action struct {
	ActionType   string `json:"action_type"`
	HowToResolve string `json:"how_to_resolve"`
	Advantage    bool   `json:"advantage"`
	Disadvantage bool   `json:"disadvantage"`
	DiceExpr     string `json:"dice_expr"`    // empty when no roll is needed
	TargetNumber int    `json:"target_number"`
	SuccessText  string `json:"success_text"`
	FailText     string `json:"fail_text"`
	Argument     string `json:"argument"` // load_game: the saved session name
}

// NeedsRoll reports whether the action has a dice expression.
func (a Action) NeedsRoll() bool {
	return strings.TrimSpace(a.DiceExpr) != ""
}

// ActionPlan is the ordered list of actions for one turn.
type ActionPlan struct {
	Actions []Action `json:"actions"`
}

// Control decodes the first action's type. Later actions never count.
func (p ActionPlan) Control() Control {
	if len(p.Actions) == 0 {
		return ControlNone
	}
	return DecodeControl(p.Actions[0].ActionType)
}

// First returns the first action, or the zero Action for an empty plan.
func (p ActionPlan) First() Action {
	if len(p.Actions) == 0 {
		return Action{}
	}
	return p.Actions[0]
}
