package services

import (
	"context"

	"github.com/jwebster45206/adventure-engine/pkg/chat"
)

// Request is one call to the generation service.
type Request struct {
	// SystemInstructions are sent in order ahead of the conversation.
	SystemInstructions []string
	UserText           string
	// Context is replayed as alternating user/assistant messages.
	Context []chat.Pair
	// Schema, when set, asks for a JSON reply matching it.
	Schema          *Schema
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
}

// Response is the raw text of a generation reply.
type Response struct {
	Text string
}

// Generator is the boundary to a remote text generation service.
// Every call is independent; implementations keep no conversation state.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// messages builds the chat message list shared by the HTTP adapters.
func (r Request) messages() []chat.ChatMessage {
	msgs := make([]chat.ChatMessage, 0, len(r.SystemInstructions)+len(r.Context)*2+1)
	for _, s := range r.SystemInstructions {
		msgs = append(msgs, chat.ChatMessage{Role: chat.ChatRoleSystem, Content: s})
	}
	msgs = append(msgs, chat.Messages(r.Context)...)
	msgs = append(msgs, chat.ChatMessage{Role: chat.ChatRoleUser, Content: r.UserText})
	return msgs
}
