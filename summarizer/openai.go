package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"discord-summarizer/models"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
	defaultTimeout = 60 * time.Second
)

// Generator produces a text summary for a channel's messages. An empty
// result means there is nothing worth reporting.
type Generator interface {
	GenerateSummary(ctx context.Context, messages []models.Message, channelName string) (string, error)
}

// ErrNoAPIKey is returned when the client was built without credentials.
var ErrNoAPIKey = errors.New("summary API key is not configured")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAIClient talks to an OpenAI compatible chat completions endpoint.
type OpenAIClient struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxPromptChars int
	HTTPClient     *http.Client
}

// NewOpenAIClient builds a client from the summary settings, filling in
// defaults for anything left empty.
func NewOpenAIClient(cfg models.SummaryConfig) *OpenAIClient {
	c := &OpenAIClient{
		APIKey:         cfg.APIKey,
		BaseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		Model:          cfg.Model,
		MaxPromptChars: cfg.MaxPromptChars,
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c.HTTPClient = &http.Client{Timeout: timeout}
	return c
}

// GenerateSummary implements Generator.
func (c *OpenAIClient) GenerateSummary(ctx context.Context, messages []models.Message, channelName string) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}
	if c.APIKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "user", Content: BuildPrompt(messages, channelName, c.MaxPromptChars)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat API error: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat API returned no choices")
	}

	log.Printf("Summarized channel %s (%d messages) in %.2fs", channelName, len(messages), time.Since(start).Seconds())
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
