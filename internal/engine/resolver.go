package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/chat"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/prompts"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

// Outcome is the local dice resolution of one planned action.
type Outcome struct {
	Action  plan.Action
	Roll    dice.Result
	Success bool
	Text    string
}

// Resolution is what the resolver hands the orchestrator for one command.
type Resolution struct {
	Plan     plan.ActionPlan
	Control  plan.Control
	Outcomes []Outcome
	// Guidance holds one success or fail text per rolled action, one per line.
	Guidance string
}

// Resolver requests a turn's action plan and rolls its dice locally.
type Resolver struct {
	gen    services.Generator
	roller *dice.Roller
	opts   Options
	logger *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(gen services.Generator, opts Options, logger *slog.Logger) *Resolver {
	opts = opts.withDefaults()
	return &Resolver{gen: gen, roller: opts.Roller, opts: opts, logger: logger}
}

// Plan issues the single structured action plan call for command.
func (r *Resolver) Plan(ctx context.Context, command string, c *actor.Character, gs *state.GameState, history []chat.Pair) (plan.ActionPlan, error) {
	sch, err := loadSchemas()
	if err != nil {
		return plan.ActionPlan{}, err
	}
	system, err := prompts.New().
		WithRules().
		WithActionPlanInstructions().
		WithCharacter(c).
		WithGameState(gs).
		Build()
	if err != nil {
		return plan.ActionPlan{}, err
	}

	var p plan.ActionPlan
	if err := services.GenerateInto(ctx, r.gen, r.opts.request(system, command, history, sch.plan), &p); err != nil {
		return plan.ActionPlan{}, err
	}
	r.logger.Debug("Action plan received", "actions", len(p.Actions), "first", p.First().ActionType)
	return p, nil
}

// ResolvePlan decodes the control command of p, or rolls every action that
// carries a dice expression. A malformed expression aborts the whole plan.
func (r *Resolver) ResolvePlan(p plan.ActionPlan) (*Resolution, error) {
	res := &Resolution{Plan: p, Control: p.Control()}
	if res.Control != plan.ControlNone {
		return res, nil
	}

	lines := make([]string, 0, len(p.Actions))
	for i, a := range p.Actions {
		if !a.NeedsRoll() {
			continue
		}
		roll, err := r.roller.Resolve(a.DiceExpr, a.Advantage, a.Disadvantage)
		if err != nil {
			return nil, fmt.Errorf("action %d (%s): %w", i+1, a.ActionType, err)
		}
		out := Outcome{Action: a, Roll: roll, Success: roll.Total >= a.TargetNumber}
		if out.Success {
			out.Text = a.SuccessText
		} else {
			out.Text = a.FailText
		}
		r.logger.Debug("Action resolved",
			"action_type", a.ActionType,
			"dice_expr", a.DiceExpr,
			"rolls", roll.Rolls,
			"faces", roll.Faces,
			"total", roll.Total,
			"target", a.TargetNumber,
			"success", out.Success)
		res.Outcomes = append(res.Outcomes, out)
		lines = append(lines, out.Text)
	}
	res.Guidance = strings.Join(lines, "\n")
	return res, nil
}
