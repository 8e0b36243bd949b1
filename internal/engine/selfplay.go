package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/plan"
	"github.com/jwebster45206/adventure-engine/pkg/prompts"
)

// SelfPlayHistoryLimit is the number of recent turns shown to the self player.
const SelfPlayHistoryLimit = 6

// SelfPlayer generates player commands in place of a human.
type SelfPlayer struct {
	gen    services.Generator
	opts   Options
	logger *slog.Logger
}

// NewSelfPlayer creates an automated command source.
func NewSelfPlayer(gen services.Generator, opts Options, logger *slog.Logger) *SelfPlayer {
	return &SelfPlayer{gen: gen, opts: opts.withDefaults(), logger: logger}
}

// Next returns the next command for s. The story so far is sent as a
// transcript so the model speaks as the player, not the narrator.
func (p *SelfPlayer) Next(ctx context.Context, s *Session) (string, error) {
	if s.Terminated() {
		return "", ErrTerminated
	}
	character := s.Character
	system, err := prompts.New().
		WithText(prompts.SelfPlayInstructions).
		WithCharacter(&character).
		Build()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("STORY SO FAR:\n")
	for _, pair := range s.History.Last(SelfPlayHistoryLimit) {
		sb.WriteString("PLAYER: " + pair.Input + "\n")
		sb.WriteString("DM: " + pair.Output + "\n")
	}
	sb.WriteString("\nWhat do you do next?")

	resp, err := p.gen.Generate(ctx, p.opts.request(system, sb.String(), nil, nil))
	if err != nil {
		return "", fmt.Errorf("self play: %w", err)
	}
	cmd := cleanCommand(resp.Text)
	if cmd == "" {
		return "", errors.New("self play: empty command")
	}
	for _, tok := range plan.ReservedTokens() {
		if strings.EqualFold(cmd, tok) {
			return "", fmt.Errorf("self play: refused session command %q", cmd)
		}
	}
	p.logger.Debug("Self play command", "command", cmd)
	return cmd, nil
}

func cleanCommand(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "PLAYER:")
	line = strings.TrimSpace(line)
	return strings.Trim(line, "\"'`")
}
