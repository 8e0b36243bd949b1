package engine

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/chat"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/state"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
	"github.com/jwebster45206/d20"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Seeds with a known first 1d20 face: 3 -> 9, 4 -> 10, 11 -> 1, 23 -> 8,
// 103 -> 20. Seed 2 starts 7, 7, 13.
func testOptions(st storage.Storage, seed ...int64) Options {
	s := int64(4)
	if len(seed) > 0 {
		s = seed[0]
	}
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	return Options{
		MaxOutputTokens: 100,
		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
		Roller:          dice.NewRoller(d20.NewRoller(s)),
		Storage:         st,
		Clock:           func() time.Time { return fixedNow },
		Debug:           level,
		BaseLevel:       slog.LevelInfo,
	}
}

func fixtureCharacter() actor.Character {
	return actor.Character{
		Name:      "Mira",
		Race:      "Half-Elf",
		Class:     "Ranger",
		Level:     2,
		HP:        10,
		MaxHP:     12,
		AC:        14,
		Gold:      5,
		Abilities: actor.Abilities{Strength: 12, Dexterity: 16, Constitution: 12, Intelligence: 10, Wisdom: 14, Charisma: 8},
		Inventory: []string{"longbow", "rope"},
	}
}

func fixtureState() *state.GameState {
	return &state.GameState{
		Player:    fixtureCharacter(),
		Location:  "Goblin Cave",
		Danger:    state.DangerMedium,
		TimeOfDay: "14:00",
		Sunrise:   "06:00",
		Sunset:    "19:00",
		Date:      "1 Mirtul",
		Monsters:  []actor.Monster{{ID: "goblin_1", Description: "a scrawny goblin", AC: 12, Health: 7}},
	}
}

func nextState(mutate func(gs *state.GameState)) *state.GameState {
	gs := fixtureState()
	mutate(gs)
	return gs
}

func attackPlan() plan.ActionPlan {
	return plan.ActionPlan{Actions: []plan.Action{{
		ActionType:   "attack",
		HowToResolve: "melee weapon attack against the goblin's AC",
		DiceExpr:     "1d20+5",
		TargetNumber: 14,
		SuccessText:  "The blade bites into the goblin.",
		FailText:     "The goblin ducks under the blow.",
	}}}
}

func controlPlan(token, argument string) plan.ActionPlan {
	return plan.ActionPlan{Actions: []plan.Action{{ActionType: token, Argument: argument}}}
}

func testSession(t *testing.T, opts Options, pairs ...chat.Pair) *Session {
	t.Helper()
	s, err := newSession(fixtureState(), pairs, opts)
	if err != nil {
		t.Fatalf("newSession() error = %v", err)
	}
	return s
}

func newTestOrchestrator(t *testing.T, gen services.Generator, opts Options, pairs ...chat.Pair) *Orchestrator {
	t.Helper()
	return NewOrchestrator(testSession(t, opts, pairs...), gen, opts, testLogger())
}
