package engine

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/chat"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

type snapshot struct {
	gs      *state.GameState
	history []chat.Pair
}

func takeSnapshot(t *testing.T, s *Session) snapshot {
	t.Helper()
	gs, err := s.Store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	return snapshot{gs: gs, history: s.History.Pairs()}
}

func TestTurn_Commit(t *testing.T) {
	after := nextState(func(gs *state.GameState) {
		gs.Player.HP = 8
		gs.Monsters[0].Health = 0
		gs.Monsters[0].Status = "dead"
		gs.TimeOfDay = "14:01"
	})
	mock := services.NewMockGenerator().
		ReplyJSON(attackPlan()).
		ReplyJSON(Narration{Player: "Your blade finds the goblin.", Omniscient: "Mira hits for 7; goblin_1 dies. Goblin clawed Mira for 2."}).
		ReplyJSON(after)
	o := newTestOrchestrator(t, mock, testOptions(nil, 3), chat.Pair{Input: "begin the game", Output: "A cave."})

	result, err := o.Turn(context.Background(), "  attack the goblin ")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	s := o.Session()

	if result.Narration != "Your blade finds the goblin." || result.Resolution.Guidance != "The blade bites into the goblin." {
		t.Errorf("unexpected result %+v", result)
	}
	if s.Phase() != PhaseIdle {
		t.Errorf("expected idle, got %v", s.Phase())
	}
	pairs := s.History.Pairs()
	if len(pairs) != 2 || pairs[1] != (chat.Pair{Input: "attack the goblin", Output: "Your blade finds the goblin."}) {
		t.Errorf("unexpected history %+v", pairs)
	}
	gs, _ := s.Store.Snapshot()
	if !reflect.DeepEqual(gs, after) {
		t.Errorf("state not replaced wholesale:\n got %+v\nwant %+v", gs, after)
	}
	if s.Character.HP != 8 {
		t.Errorf("character not synced, HP = %d", s.Character.HP)
	}

	calls := mock.GetCalls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
	narr := calls[1]
	if narr.Schema.Name != "narration" || len(narr.Context) != 1 {
		t.Errorf("unexpected narration request %+v", narr)
	}
	if !strings.Contains(strings.Join(narr.SystemInstructions, "\n"), "The blade bites into the goblin.") {
		t.Error("guidance missing from narration call")
	}
	sync := calls[2]
	if sync.Schema.Name != "game_state" || sync.Context != nil {
		t.Errorf("sync call must be stateless, got %+v", sync)
	}
	if !strings.Contains(sync.UserText, "goblin_1 dies") || strings.Contains(sync.UserText, "Your blade finds the goblin.") {
		t.Errorf("sync call must carry only the omniscient account: %q", sync.UserText)
	}
	for _, c := range calls {
		if c.MaxOutputTokens != 100 || c.Temperature != DefaultTemperature || c.TopP != DefaultTopP {
			t.Errorf("unexpected sampling %+v", c)
		}
	}
}

func TestTurn_AtomicOnFailure(t *testing.T) {
	narration := Narration{Player: "p", Omniscient: "o"}
	badDice := attackPlan()
	badDice.Actions[0].DiceExpr = "1d20+STR"
	dupMonsters := nextState(func(gs *state.GameState) {
		gs.Monsters = append(gs.Monsters, gs.Monsters[0])
	})
	overspent := nextState(func(gs *state.GameState) { gs.Player.Gold = -10 })

	tests := []struct {
		name   string
		script func(m *services.MockGenerator)
		want   error
	}{
		{"plan transport error", func(m *services.MockGenerator) {
			m.Fail(&services.Error{Kind: services.ErrTransport, Provider: "mock"})
		}, services.ErrTransport},
		{"plan schema violation", func(m *services.MockGenerator) {
			m.Reply(`{"actions": "attack"}`)
		}, services.ErrSchemaViolation},
		{"invalid dice expression", func(m *services.MockGenerator) {
			m.ReplyJSON(badDice)
		}, dice.ErrInvalidExpression},
		{"narration auth error", func(m *services.MockGenerator) {
			m.ReplyJSON(attackPlan()).Fail(&services.Error{Kind: services.ErrAuth, Provider: "mock"})
		}, services.ErrAuth},
		{"narration not json", func(m *services.MockGenerator) {
			m.ReplyJSON(attackPlan()).Reply("The goblin falls.")
		}, services.ErrSchemaViolation},
		{"sync bad request", func(m *services.MockGenerator) {
			m.ReplyJSON(attackPlan()).ReplyJSON(narration).Fail(&services.Error{Kind: services.ErrBadRequest, Provider: "mock"})
		}, services.ErrBadRequest},
		{"sync schema violation", func(m *services.MockGenerator) {
			m.ReplyJSON(attackPlan()).ReplyJSON(narration).Reply(`{"player": "Mira", "location": 7}`)
		}, services.ErrSchemaViolation},
		{"sync invariant violation", func(m *services.MockGenerator) {
			m.ReplyJSON(attackPlan()).ReplyJSON(narration).ReplyJSON(dupMonsters)
		}, state.ErrInvariant},
		{"sync overspends gold", func(m *services.MockGenerator) {
			m.ReplyJSON(attackPlan()).ReplyJSON(narration).ReplyJSON(overspent)
		}, state.ErrInvariant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := services.NewMockGenerator()
			tt.script(mock)
			o := newTestOrchestrator(t, mock, testOptions(nil, 3), chat.Pair{Input: "begin the game", Output: "A cave."})
			before := takeSnapshot(t, o.Session())
			charBefore := o.Session().Character

			_, err := o.Turn(context.Background(), "attack the goblin")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			after := takeSnapshot(t, o.Session())
			if !reflect.DeepEqual(before, after) {
				t.Errorf("state or history changed after failed turn")
			}
			if !reflect.DeepEqual(charBefore, o.Session().Character) {
				t.Errorf("character changed after failed turn")
			}
			if o.Session().Phase() != PhaseIdle {
				t.Errorf("expected idle after abort, got %v", o.Session().Phase())
			}
		})
	}
}

func TestTurn_TransitionRules(t *testing.T) {
	blessed := func() *state.GameState {
		gs := fixtureState()
		gs.Player.SpellEffects = []actor.SpellEffect{{Effect: "bless", MinutesRemaining: 5}}
		return gs
	}
	tests := []struct {
		name    string
		mutate  func(gs *state.GameState)
		wantErr bool
	}{
		{"effect ticks down", func(gs *state.GameState) { gs.Player.SpellEffects[0].MinutesRemaining = 4 }, false},
		{"effect grows", func(gs *state.GameState) { gs.Player.SpellEffects[0].MinutesRemaining = 500 }, true},
		{"new effect", func(gs *state.GameState) {
			gs.Player.SpellEffects = append(gs.Player.SpellEffects, actor.SpellEffect{Effect: "haste", MinutesRemaining: 10})
		}, false},
		{"duplicate items are kept", func(gs *state.GameState) {
			gs.Player.Inventory = append(gs.Player.Inventory, "rope", "rope")
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := blessed()
			tt.mutate(next)
			mock := services.NewMockGenerator().
				ReplyJSON(controlPlan("wait", "")).
				ReplyJSON(Narration{Player: "Time passes.", Omniscient: "A minute passes."}).
				ReplyJSON(next)
			opts := testOptions(nil)
			s, err := newSession(blessed(), nil, opts)
			if err != nil {
				t.Fatalf("newSession() error = %v", err)
			}
			o := NewOrchestrator(s, mock, opts, testLogger())
			before := takeSnapshot(t, s)

			_, err = o.Turn(context.Background(), "wait")
			if tt.wantErr {
				if !errors.Is(err, state.ErrInvariant) {
					t.Fatalf("expected ErrInvariant, got %v", err)
				}
				if got := takeSnapshot(t, o.Session()); !reflect.DeepEqual(got, before) {
					t.Error("rejected transition changed the session")
				}
				return
			}
			if err != nil {
				t.Fatalf("Turn() error = %v", err)
			}
			gs, _ := o.Session().Store.Snapshot()
			if !reflect.DeepEqual(gs.Player.Inventory, next.Player.Inventory) || !reflect.DeepEqual(gs.Player.SpellEffects, next.Player.SpellEffects) {
				t.Errorf("committed player = %+v", gs.Player)
			}
		})
	}
}

func TestTurn_RetryAfterFailure(t *testing.T) {
	after := nextState(func(gs *state.GameState) { gs.Location = "Cave Mouth" })
	mock := services.NewMockGenerator().
		Fail(&services.Error{Kind: services.ErrTransport, Provider: "mock"}).
		ReplyJSON(controlPlan("move", "")).
		ReplyJSON(Narration{Player: "You step out.", Omniscient: "Mira moves to the cave mouth."}).
		ReplyJSON(after)
	o := newTestOrchestrator(t, mock, testOptions(nil))

	if _, err := o.Turn(context.Background(), "leave"); err == nil {
		t.Fatal("expected first attempt to fail")
	}
	if _, err := o.Turn(context.Background(), "leave"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if o.Session().History.Len() != 1 {
		t.Errorf("expected one committed turn, got %d", o.Session().History.Len())
	}
}

func TestTurn_Death(t *testing.T) {
	dead := nextState(func(gs *state.GameState) { gs.Player.HP = -3 })
	mock := services.NewMockGenerator().
		ReplyJSON(attackPlan()).
		ReplyJSON(Narration{Player: "The goblin's blade finds your heart.", Omniscient: "Goblin crits for 13."}).
		ReplyJSON(dead).
		Reply("  Your tale ends here. THE END  ")
	o := newTestOrchestrator(t, mock, testOptions(nil, 11))

	result, err := o.Turn(context.Background(), "attack the goblin")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	if !result.Terminated || result.Closing != "Your tale ends here. THE END" {
		t.Errorf("unexpected result %+v", result)
	}
	s := o.Session()
	if !s.Terminated() || s.Character.HP != 0 {
		t.Errorf("expected terminated session with clamped HP, got %v hp=%d", s.Phase(), s.Character.HP)
	}
	closing := mock.GetCalls()[3]
	if closing.Schema != nil {
		t.Error("closing narration should be freeform")
	}

	if _, err := o.Turn(context.Background(), "get up"); !errors.Is(err, ErrTerminated) {
		t.Errorf("expected ErrTerminated, got %v", err)
	}
	if mock.CallCount() != 4 {
		t.Errorf("terminated session must not call the service, calls = %d", mock.CallCount())
	}
}

func TestTurn_DeathClosingFails(t *testing.T) {
	dead := nextState(func(gs *state.GameState) { gs.Player.HP = 0 })
	mock := services.NewMockGenerator().
		ReplyJSON(attackPlan()).
		ReplyJSON(Narration{Player: "p", Omniscient: "o"}).
		ReplyJSON(dead).
		Fail(&services.Error{Kind: services.ErrTransport, Provider: "mock"})
	o := newTestOrchestrator(t, mock, testOptions(nil, 11))

	result, err := o.Turn(context.Background(), "attack")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	if !result.Terminated || result.Closing != "" || !o.Session().Terminated() {
		t.Errorf("expected termination without closing text, got %+v", result)
	}
	if o.Session().History.Len() != 1 {
		t.Errorf("the fatal turn stays committed")
	}
}

func TestTurn_EmptyCommand(t *testing.T) {
	mock := services.NewMockGenerator()
	o := newTestOrchestrator(t, mock, testOptions(nil))
	if _, err := o.Turn(context.Background(), "   "); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("expected ErrEmptyCommand, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Error("empty command must not call the service")
	}
}

func TestTurn_InProgress(t *testing.T) {
	mock := services.NewMockGenerator()
	o := newTestOrchestrator(t, mock, testOptions(nil))

	var nested error
	mock.GenerateFunc = func(ctx context.Context, req services.Request) (*services.Response, error) {
		_, nested = o.Turn(ctx, "again")
		return nil, &services.Error{Kind: services.ErrTransport, Provider: "mock"}
	}
	_, _ = o.Turn(context.Background(), "look")
	if !errors.Is(nested, ErrTurnInProgress) {
		t.Errorf("expected ErrTurnInProgress, got %v", nested)
	}
}

func TestBegin(t *testing.T) {
	mock := services.NewMockGenerator().
		ReplyJSON(controlPlan("observe", "")).
		ReplyJSON(Narration{Player: "You wake in a cave.", Omniscient: "Start."}).
		ReplyJSON(fixtureState())
	o := newTestOrchestrator(t, mock, testOptions(nil))

	if _, err := o.Begin(context.Background()); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if got := o.Session().History.Pairs()[0].Input; got != "begin the game" {
		t.Errorf("unexpected opening command %q", got)
	}
}

func TestPhase_String(t *testing.T) {
	if PhaseSynchronizing.String() != "synchronizing_state" || Phase(42).String() != "phase(42)" {
		t.Error("unexpected phase names")
	}
}
