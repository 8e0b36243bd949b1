package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/adventure-engine/pkg/chat"
)

// EncodeUnit renders unit as an indented JSON document.
func EncodeUnit(unit *Unit) ([]byte, error) {
	data, err := json.MarshalIndent(unit, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal unit: %w", err)
	}
	return data, nil
}

// DecodeUnit parses and validates a persisted unit. Every failure wraps
// ErrMalformed.
func DecodeUnit(data []byte) (*Unit, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for _, field := range []string{"character", "game_state", "context"} {
		if _, ok := probe[field]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrMalformed, field)
		}
	}

	var unit Unit
	if err := json.Unmarshal(data, &unit); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if unit.Context == nil {
		unit.Context = []chat.Pair{}
	}
	if err := unit.Validate(); err != nil {
		return nil, err
	}
	return &unit, nil
}
