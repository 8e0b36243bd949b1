package engine

import (
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

// Narration is the two-account reply of the narrative call. The player
// account feeds the conversation log; the omniscient account feeds state sync.
type Narration struct {
	Player     string `json:"player_narration"`
	Omniscient string `json:"omniscient_narration"`
}

type schemaSet struct {
	plan      *services.Schema
	narration *services.Schema
	gameState *services.Schema
}

var loadSchemas = sync.OnceValues(func() (*schemaSet, error) {
	planSchema, err := services.NewSchema[plan.ActionPlan]("action_plan", nil)
	if err != nil {
		return nil, err
	}
	narrationSchema, err := services.NewSchema[Narration]("narration", nil)
	if err != nil {
		return nil, err
	}
	gsSchema, err := services.NewSchema[state.GameState]("game_state", restrictDanger)
	if err != nil {
		return nil, err
	}
	return &schemaSet{plan: planSchema, narration: narrationSchema, gameState: gsSchema}, nil
})

func restrictDanger(s *jsonschema.Schema) {
	prop, ok := s.Properties["danger_level"]
	if !ok {
		return
	}
	prop.Enum = make([]any, 0, len(state.DangerLevels))
	for _, d := range state.DangerLevels {
		prop.Enum = append(prop.Enum, string(d))
	}
}
