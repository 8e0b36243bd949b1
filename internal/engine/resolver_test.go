package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
)

func TestResolvePlan_TiesSucceed(t *testing.T) {
	tests := []struct {
		name    string
		seed    int64
		total   int
		success bool
		text    string
	}{
		{"tie succeeds", 3, 14, true, "The blade bites into the goblin."},
		{"one short fails", 23, 13, false, "The goblin ducks under the blow."},
		{"natural 20", 103, 25, true, "The blade bites into the goblin."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(services.NewMockGenerator(), testOptions(nil, tt.seed), testLogger())
			res, err := r.ResolvePlan(attackPlan())
			if err != nil {
				t.Fatalf("ResolvePlan() error = %v", err)
			}
			if len(res.Outcomes) != 1 {
				t.Fatalf("expected 1 outcome, got %d", len(res.Outcomes))
			}
			out := res.Outcomes[0]
			if out.Roll.Total != tt.total || out.Success != tt.success {
				t.Errorf("total=%d success=%v", out.Roll.Total, out.Success)
			}
			if res.Guidance != tt.text {
				t.Errorf("Guidance = %q, want %q", res.Guidance, tt.text)
			}
		})
	}
}

func TestResolvePlan_GuidanceLines(t *testing.T) {
	p := plan.ActionPlan{Actions: []plan.Action{
		{ActionType: "move", HowToResolve: "walk"},
		{ActionType: "perception", DiceExpr: "1d20+2", TargetNumber: 10, SuccessText: "You spot a tripwire.", FailText: "You miss the tripwire."},
		{ActionType: "goblin_attack", DiceExpr: "1d20+4", TargetNumber: 14, Advantage: true, SuccessText: "The goblin hits.", FailText: "The goblin misses."},
	}}
	// seed 2 draws 7, 7, 13: perception 7+2=9 fails; goblin with
	// advantage keeps max(11, 17) and hits
	r := NewResolver(services.NewMockGenerator(), testOptions(nil, 2), testLogger())
	res, err := r.ResolvePlan(p)
	if err != nil {
		t.Fatalf("ResolvePlan() error = %v", err)
	}
	want := "You miss the tripwire.\nThe goblin hits."
	if res.Guidance != want {
		t.Errorf("Guidance = %q, want %q", res.Guidance, want)
	}
	if len(res.Outcomes) != 2 || res.Outcomes[1].Roll.Mode != dice.ModeAdvantage {
		t.Fatalf("unexpected outcomes %+v", res.Outcomes)
	}
	if got := res.Outcomes[1].Roll.Rolls; !reflect.DeepEqual(got, []int{11, 17}) {
		t.Errorf("goblin rolls = %v, want [11 17]", got)
	}
}

func TestResolvePlan_NoDice(t *testing.T) {
	r := NewResolver(services.NewMockGenerator(), testOptions(nil), testLogger())
	res, err := r.ResolvePlan(plan.ActionPlan{Actions: []plan.Action{{ActionType: "talk", SuccessText: "x", FailText: "y"}}})
	if err != nil {
		t.Fatalf("ResolvePlan() error = %v", err)
	}
	if res.Guidance != "" || len(res.Outcomes) != 0 {
		t.Errorf("expected no guidance, got %q", res.Guidance)
	}
}

func TestResolvePlan_NamedModifierRejected(t *testing.T) {
	opts := testOptions(nil, 3)
	r := NewResolver(services.NewMockGenerator(), opts, testLogger())

	p := attackPlan()
	p.Actions[0].DiceExpr = "1d20+Wisdom Modifier"
	_, err := r.ResolvePlan(p)
	if !errors.Is(err, dice.ErrInvalidExpression) {
		t.Fatalf("expected ErrInvalidExpression, got %v", err)
	}
	next, err := opts.Roller.Roll(dice.Spec{Count: 1, Sides: 20})
	if err != nil {
		t.Fatal(err)
	}
	if next.Value != 9 {
		t.Errorf("no dice should be drawn, next draw = %d", next.Value)
	}
}

func TestResolvePlan_Control(t *testing.T) {
	r := NewResolver(services.NewMockGenerator(), testOptions(nil), testLogger())

	res, err := r.ResolvePlan(controlPlan("SAVE_GAME ", ""))
	if err != nil {
		t.Fatalf("ResolvePlan() error = %v", err)
	}
	if res.Control != plan.ControlSave || len(res.Outcomes) != 0 {
		t.Errorf("expected save short-circuit, got %+v", res)
	}

	// Only the first action can be a session command
	p := attackPlan()
	p.Actions = append(p.Actions, plan.Action{ActionType: "quit_game"})
	res, err = r.ResolvePlan(p)
	if err != nil {
		t.Fatalf("ResolvePlan() error = %v", err)
	}
	if res.Control != plan.ControlNone {
		t.Errorf("expected no control, got %v", res.Control)
	}
}

func TestResolver_Plan(t *testing.T) {
	mock := services.NewMockGenerator().ReplyJSON(attackPlan())
	r := NewResolver(mock, testOptions(nil, 3), testLogger())
	c := fixtureCharacter()

	p, err := r.Plan(context.Background(), "attack the goblin", &c, fixtureState(), nil)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	res, err := r.ResolvePlan(p)
	if err != nil {
		t.Fatalf("ResolvePlan() error = %v", err)
	}
	if res.Guidance != "The blade bites into the goblin." {
		t.Errorf("unexpected guidance %q", res.Guidance)
	}

	calls := mock.GetCalls()
	if len(calls) != 1 {
		t.Fatalf("expected one plan call, got %d", len(calls))
	}
	if calls[0].Schema == nil || calls[0].Schema.Name != "action_plan" || calls[0].UserText != "attack the goblin" {
		t.Errorf("unexpected plan request %+v", calls[0])
	}
}
