package chat

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Narrator
	ChatRoleSystem = "system"    // Instructions
)

// ChatMessage represents a single chat message in the conversation.
// The HTTP generation adapters send these to their APIs.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Messages expands context pairs into alternating user/assistant messages.
func Messages(pairs []Pair) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(pairs)*2)
	for _, p := range pairs {
		msgs = append(msgs,
			ChatMessage{Role: ChatRoleUser, Content: p.Input},
			ChatMessage{Role: ChatRoleAgent, Content: p.Output},
		)
	}
	return msgs
}
