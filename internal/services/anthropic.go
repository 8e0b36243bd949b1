package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/adventure-engine/pkg/chat"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
)

// AnthropicService implements Generator for Anthropic Claude
type AnthropicService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure AnthropicService implements Generator interface
var _ Generator = (*AnthropicService)(nil)

type AnthropicChatRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	TopP        *float64           `json:"top_p,omitempty"`
	Messages    []chat.ChatMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
}

type AnthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type AnthropicChatResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []AnthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicService creates a messages API client. An empty baseURL uses
// the public endpoint.
func NewAnthropicService(apiKey, modelName, baseURL string, timeout time.Duration, logger *slog.Logger) *AnthropicService {
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &AnthropicService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// splitChatMessages extracts and combines all system messages into a single system prompt
// and returns the remaining non-system messages
func splitChatMessages(messages []chat.ChatMessage) (string, []chat.ChatMessage) {
	var systemParts []string
	var nonSystemMessages []chat.ChatMessage

	for _, msg := range messages {
		if msg.Role == chat.ChatRoleSystem {
			systemParts = append(systemParts, msg.Content)
		} else {
			nonSystemMessages = append(nonSystemMessages, msg)
		}
	}

	return strings.Join(systemParts, "\n\n"), nonSystemMessages
}

// schemaInstruction tells the model the reply shape, since the messages API
// has no response schema parameter.
func schemaInstruction(s *Schema) (string, error) {
	raw, err := s.JSON()
	if err != nil {
		return "", err
	}
	return "Respond ONLY with a single JSON object matching this JSON schema. No prose, no markdown fences.\n" + string(raw), nil
}

// Generate sends one messages API request.
func (a *AnthropicService) Generate(ctx context.Context, r Request) (*Response, error) {
	messages := r.messages()
	if r.Schema != nil {
		instr, err := schemaInstruction(r.Schema)
		if err != nil {
			return nil, &Error{Kind: ErrBadRequest, Provider: "anthropic", Err: err}
		}
		messages = append([]chat.ChatMessage{{Role: chat.ChatRoleSystem, Content: instr}}, messages...)
	}
	systemPrompt, conversationMessages := splitChatMessages(messages)

	// Newer Claude models reject temperature and top_p together; temperature wins.
	temperature := r.Temperature
	anthropicReq := AnthropicChatRequest{
		Model:       a.modelName,
		MaxTokens:   r.MaxOutputTokens,
		Temperature: &temperature,
		Messages:    conversationMessages,
		System:      systemPrompt,
	}
	if temperature == 0 && r.TopP > 0 {
		topP := r.TopP
		anthropicReq.Temperature = nil
		anthropicReq.TopP = &topP
	}
	if anthropicReq.MaxTokens <= 0 {
		anthropicReq.MaxTokens = 2048
	}

	reqBody, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required Anthropic headers
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, transportError("anthropic", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError("anthropic", fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyStatus("anthropic", resp.StatusCode, string(body))
	}

	var anthropicResp AnthropicChatResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, badResponse("anthropic", "failed to parse response: "+err.Error())
	}
	if anthropicResp.Error != nil {
		return nil, badResponse("anthropic", "API error: "+anthropicResp.Error.Message)
	}

	// Extract text content from the response
	var responseText string
	for _, content := range anthropicResp.Content {
		if content.Type == "text" {
			responseText += content.Text
		}
	}
	a.logger.Debug("Anthropic response received", "stop_reason", anthropicResp.StopReason, "output_tokens", anthropicResp.Usage.OutputTokens)

	return &Response{Text: responseText}, nil
}
