package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

// Builder assembles the ordered system instruction blocks for one request
// using a fluent interface.
type Builder struct {
	blocks    []string
	character *actor.Character
	gs        *state.GameState
	guidance  *string
	err       error
}

// New creates an empty prompt builder.
func New() *Builder {
	return &Builder{blocks: make([]string, 0, 4)}
}

// WithText appends a raw instruction block.
func (b *Builder) WithText(text string) *Builder {
	if strings.TrimSpace(text) != "" {
		b.blocks = append(b.blocks, text)
	}
	return b
}

// WithRules appends the table rules.
func (b *Builder) WithRules() *Builder {
	return b.WithText(GameRules)
}

// WithActionPlanInstructions appends the plan instructions with the reserved
// session command tokens filled in.
func (b *Builder) WithActionPlanInstructions() *Builder {
	quoted := make([]string, 0, len(plan.ReservedTokens()))
	for _, tok := range plan.ReservedTokens() {
		quoted = append(quoted, `"`+tok+`"`)
	}
	return b.WithText(fmt.Sprintf(ActionPlanInstructions, strings.Join(quoted, ", ")))
}

// WithCharacter sets the player character rendered after the instructions.
func (b *Builder) WithCharacter(c *actor.Character) *Builder {
	b.character = c
	return b
}

// WithGameState sets the game state rendered after the character.
func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithGuidance sets the resolved dice outcomes. An empty string is still
// rendered so the narrator knows no rolls were made.
func (b *Builder) WithGuidance(guidance string) *Builder {
	b.guidance = &guidance
	return b
}

// Build returns the instruction blocks in order: instructions, character,
// game state, resolved outcomes.
func (b *Builder) Build() ([]string, error) {
	out := make([]string, 0, len(b.blocks)+3)
	out = append(out, b.blocks...)

	if b.character != nil {
		out = append(out, BuildCharacterPrompt(b.character))
	}
	if b.gs != nil {
		block, err := GameStateBlock("CURRENT GAME STATE", b.gs)
		if err != nil {
			return nil, fmt.Errorf("error building game state prompt: %w", err)
		}
		out = append(out, block)
	}
	if b.guidance != nil {
		out = append(out, GuidanceBlock(*b.guidance))
	}
	return out, nil
}

// GameStateBlock renders gs as an indented JSON block under a heading.
func GameStateBlock(heading string, gs *state.GameState) (string, error) {
	data, err := json.MarshalIndent(gs, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal game state: %w", err)
	}
	return heading + ":\n" + string(data), nil
}

// GuidanceBlock renders the resolved outcomes for the narrator.
func GuidanceBlock(guidance string) string {
	if strings.TrimSpace(guidance) == "" {
		return "RESOLVED OUTCOMES:\nNo dice were rolled this turn. Narrate the actions as described."
	}
	return "RESOLVED OUTCOMES:\n" + guidance
}

// BuildCharacterPrompt constructs the player character section of the prompt
//
// Example output:
// REMEMBER: In this game, the user is controlling: Mira Thorne (she/her), Level 3 Half-Elf Ranger. HP 7/24, AC 14, 20 gold.
func BuildCharacterPrompt(c *actor.Character) string {
	if c == nil {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("REMEMBER: In this game, the user is controlling: ")
	sb.WriteString(c.Name)
	if c.Pronouns != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", c.Pronouns))
	}
	if c.Level > 0 || c.Class != "" || c.Race != "" {
		summaryParts := []string{}
		if c.Level > 0 {
			summaryParts = append(summaryParts, fmt.Sprintf("Level %d", c.Level))
		}
		if c.Race != "" {
			summaryParts = append(summaryParts, c.Race)
		}
		if c.Class != "" {
			summaryParts = append(summaryParts, c.Class)
		}
		sb.WriteString(", " + strings.Join(summaryParts, " "))
	}

	// The actor keeps full HP when HP is 0, so current HP comes from the sheet.
	hp, maxHP, ac := c.HP, c.MaxHP, c.AC
	if a, err := c.Actor(); err == nil {
		maxHP, ac = a.MaxHP(), a.AC()
	}
	sb.WriteString(fmt.Sprintf(". HP %d/%d, AC %d, %d gold.", hp, maxHP, ac, c.Gold))
	return sb.String()
}
