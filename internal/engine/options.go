package engine

import (
	"log/slog"
	"time"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/chat"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/storage"
)

const (
	DefaultMaxOutputTokens = 5000
	DefaultTemperature     = 0.7
	DefaultTopP            = 0.95
)

// Options configures sessions and the orchestrator.
type Options struct {
	MaxOutputTokens int
	Temperature     float64
	TopP            float64

	// HistoryWindow limits the context pairs sent per call. 0 sends all.
	HistoryWindow int

	Roller  *dice.Roller
	Storage storage.Storage
	Clock   func() time.Time

	Debug     *slog.LevelVar
	BaseLevel slog.Level
}

// DefaultOptions returns the sampling defaults with a clock-seeded roller.
func DefaultOptions() Options {
	return Options{
		MaxOutputTokens: DefaultMaxOutputTokens,
		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
		Roller:          dice.New(),
		Clock:           time.Now,
		BaseLevel:       slog.LevelInfo,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxOutputTokens <= 0 {
		o.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if o.Roller == nil {
		o.Roller = dice.New()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

func (o Options) request(system []string, userText string, context []chat.Pair, schema *services.Schema) services.Request {
	return services.Request{
		SystemInstructions: system,
		UserText:           userText,
		Context:            context,
		Schema:             schema,
		MaxOutputTokens:    o.MaxOutputTokens,
		Temperature:        o.Temperature,
		TopP:               o.TopP,
	}
}
