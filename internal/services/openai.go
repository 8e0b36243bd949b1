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
	openAIBaseURL = "https://api.openai.com/v1"
)

// OpenAIService implements Generator for OpenAI compatible chat completion
// APIs. In Azure mode the endpoint is the full deployment URL and the key is
// sent in the api-key header.
type OpenAIService struct {
	apiKey     string
	modelName  string
	endpoint   string
	azure      bool
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure OpenAIService implements Generator interface
var _ Generator = (*OpenAIService)(nil)

// OpenAIChatRequest represents the request structure for chat completions
type OpenAIChatRequest struct {
	Model          string               `json:"model,omitempty"`
	Messages       []chat.ChatMessage   `json:"messages"`
	Temperature    float64              `json:"temperature"`
	TopP           float64              `json:"top_p"`
	MaxTokens      int                  `json:"max_tokens,omitempty"`
	ResponseFormat *OpenAIResponseFormat `json:"response_format,omitempty"`
}

// OpenAIResponseFormat requests schema-shaped JSON output.
type OpenAIResponseFormat struct {
	Type       string            `json:"type"` // "json_schema"
	JSONSchema *OpenAIJSONSchema `json:"json_schema,omitempty"`
}

type OpenAIJSONSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

// OpenAIChatChoice represents a single choice in the response
type OpenAIChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Refusal string `json:"refusal,omitempty"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// OpenAIChatResponse represents the response structure for chat completions
type OpenAIChatResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []OpenAIChatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewOpenAIService creates a chat completions client. An empty endpoint uses
// the public OpenAI API.
func NewOpenAIService(apiKey, modelName, endpoint string, azure bool, timeout time.Duration, logger *slog.Logger) *OpenAIService {
	if endpoint == "" {
		endpoint = openAIBaseURL + "/chat/completions"
	} else if !azure && !strings.Contains(endpoint, "/chat/completions") {
		endpoint = strings.TrimRight(endpoint, "/") + "/chat/completions"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OpenAIService{
		apiKey:    apiKey,
		modelName: modelName,
		endpoint:  endpoint,
		azure:     azure,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *OpenAIService) provider() string {
	if c.azure {
		return "azure"
	}
	return "openai"
}

// Generate sends one chat completion request.
func (c *OpenAIService) Generate(ctx context.Context, r Request) (*Response, error) {
	request := OpenAIChatRequest{
		Messages:    r.messages(),
		Temperature: r.Temperature,
		TopP:        r.TopP,
		MaxTokens:   r.MaxOutputTokens,
	}
	if !c.azure {
		// Azure takes the model from the deployment URL
		request.Model = c.modelName
	}
	if r.Schema != nil {
		raw, err := r.Schema.JSON()
		if err != nil {
			return nil, &Error{Kind: ErrBadRequest, Provider: c.provider(), Err: err}
		}
		request.ResponseFormat = &OpenAIResponseFormat{
			Type:       "json_schema",
			JSONSchema: &OpenAIJSONSchema{Name: r.Schema.Name, Strict: true, Schema: raw},
		}
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.azure {
		req.Header.Set("api-key", c.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(c.provider(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(c.provider(), fmt.Errorf("failed to read response: %w", err))
	}
	c.logger.Debug("Chat completion finished", "provider", c.provider(), "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ClassifyStatus(c.provider(), resp.StatusCode, string(body))
	}

	var chatResp OpenAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, badResponse(c.provider(), "failed to unmarshal response: "+err.Error())
	}
	if chatResp.Error != nil {
		return nil, badResponse(c.provider(), "API error: "+chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, badResponse(c.provider(), "no choices returned from API")
	}

	choice := chatResp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, &Error{Kind: ErrBadRequest, Provider: c.provider(), Message: "model refused to respond: " + choice.Message.Refusal}
	}

	return &Response{Text: choice.Message.Content}, nil
}
