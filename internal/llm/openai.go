package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	openAIBaseURL   = "https://api.openai.com/v1"
	togetherBaseURL = "https://api.together.xyz/v1"

	chatCompletionsPath = "/chat/completions"
)

// openAIClient speaks the OpenAI chat-completions wire format. Together and
// vLLM endpoints are API-compatible and reuse it with a different base URL.
type openAIClient struct {
	baseURL    string
	apiKey     string
	systemRole string // "system" unless the endpoint wants "developer"
	httpClient *http.Client
}

func newOpenAIClient(baseURL, apiKey, systemRole string) *openAIClient {
	if systemRole == "" {
		systemRole = "system"
	}
	return &openAIClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		systemRole: systemRole,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

func (c *openAIClient) Generate(ctx context.Context, model, system string, messages []Message, opts Options) (string, error) {
	msgs := make([]Message, 0, len(messages)+1)
	if system != "" {
		msgs = append(msgs, Message{Role: c.systemRole, Content: system})
	}
	msgs = append(msgs, messages...)

	reqBody := openAIRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: %s: %w", model, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("llm: decode response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		if parsed.Error.Code == "context_length_exceeded" ||
			strings.Contains(parsed.Error.Message, "context length") ||
			strings.Contains(parsed.Error.Message, "maximum context") {
			return "", &ContextLengthError{Model: model, Msg: parsed.Error.Message}
		}
		return "", fmt.Errorf("llm: %s: %s (%s)", model, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: %s: unexpected status %d", model, resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm: %s: empty choices", model)
	}

	return parsed.Choices[0].Message.Content, nil
}
