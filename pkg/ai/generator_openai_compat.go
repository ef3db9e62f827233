package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAICompatGenerator calls an OpenAI-compatible /chat/completions endpoint.
// Groq exposes one at https://api.groq.com/openai/v1; vLLM, LiteLLM and
// self-hosted models work the same way.
type OpenAICompatGenerator struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewOpenAICompatGenerator builds an OpenAI-compatible TextGenerator.
// baseURL should include the /v1 prefix. maxTokens caps the completion length
// per call; zero means no explicit cap.
func NewOpenAICompatGenerator(baseURL, apiKey, model string, maxTokens int, timeout time.Duration) *OpenAICompatGenerator {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAICompatGenerator{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		model:      strings.TrimSpace(model),
		maxTokens:  maxTokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GenerateText implements TextGenerator using the chat completions API.
func (g *OpenAICompatGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if g.model == "" {
		return "", fmt.Errorf("generation model required")
	}
	messages := make([]oaiMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, oaiMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, oaiMessage{Role: "user", Content: userPrompt})

	body, err := json.Marshal(oaiChatRequest{
		Model:     g.model,
		Messages:  messages,
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return "", err
	}

	url := g.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("text generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return "", fmt.Errorf("text generation api error: %s", errResp.Error.Message)
		}
		return "", fmt.Errorf("text generation api error: %s", resp.Status)
	}

	var chatResp oaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("text generation decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from text generation api")
	}
	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from text generation api")
	}
	return text, nil
}

// OpenAI-compatible request/response types.

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiChatRequest struct {
	Model     string       `json:"model"`
	Messages  []oaiMessage `json:"messages"`
	MaxTokens int          `json:"max_tokens,omitempty"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
