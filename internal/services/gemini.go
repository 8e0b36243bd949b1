package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/jwebster45206/adventure-engine/pkg/chat"
)

// GeminiService implements Generator with the Google Gemini SDK.
type GeminiService struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

// Ensure GeminiService implements Generator interface
var _ Generator = (*GeminiService)(nil)

// NewGeminiService creates a Gemini client. A non-empty endpoint overrides
// the API host.
func NewGeminiService(ctx context.Context, apiKey, modelName, endpoint string, logger *slog.Logger) (*GeminiService, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{client: client, modelName: modelName, logger: logger}, nil
}

// Close releases the underlying client.
func (g *GeminiService) Close() error {
	return g.client.Close()
}

// Generate builds a fresh model configuration per call and replays the
// context as chat history.
func (g *GeminiService) Generate(ctx context.Context, r Request) (*Response, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(float32(r.Temperature))
	model.SetTopP(float32(r.TopP))
	if r.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(r.MaxOutputTokens))
	}
	if len(r.SystemInstructions) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(r.SystemInstructions, "\n\n"))}}
	}
	if r.Schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = toGenaiSchema(r.Schema.Definition)
	}

	cs := model.StartChat()
	cs.History = toGenaiHistory(r.Context)

	resp, err := cs.SendMessage(ctx, genai.Text(r.UserText))
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, badResponse("gemini", "no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	g.logger.Debug("Gemini response received", "finish_reason", resp.Candidates[0].FinishReason)
	return &Response{Text: sb.String()}, nil
}

func toGenaiHistory(pairs []chat.Pair) []*genai.Content {
	history := make([]*genai.Content, 0, len(pairs)*2)
	for _, p := range pairs {
		history = append(history,
			&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(p.Input)}},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(p.Output)}},
		)
	}
	return history
}

// toGenaiSchema converts the subset of JSON schema Gemini understands.
func toGenaiSchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Description: s.Description}

	typ := s.Type
	if typ == "" {
		for _, t := range s.Types {
			if t == "null" {
				out.Nullable = true
				continue
			}
			if typ == "" {
				typ = t
			}
		}
	}

	switch typ {
	case "object":
		out.Type = genai.TypeObject
		if len(s.Properties) > 0 {
			out.Properties = make(map[string]*genai.Schema, len(s.Properties))
			for name, prop := range s.Properties {
				out.Properties[name] = toGenaiSchema(prop)
			}
		}
		out.Required = append([]string(nil), s.Required...)
	case "array":
		out.Type = genai.TypeArray
		out.Items = toGenaiSchema(s.Items)
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
		for _, v := range s.Enum {
			if str, ok := v.(string); ok {
				out.Enum = append(out.Enum, str)
			}
		}
	}
	return out
}

func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		e := ClassifyStatus("gemini", apiErr.Code, apiErr.Message)
		e.Err = err
		return e
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &Error{Kind: ErrBadRequest, Provider: "gemini", Err: err}
	}
	return transportError("gemini", err)
}
