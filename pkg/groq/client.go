package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// BaseURL is the Groq OpenAI-compatible API base URL. It is a variable so
// tests can point the client at a local server.
var BaseURL = "https://api.groq.com/openai/v1"

// Client is a minimal HTTP client for the Groq chat-completions API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	debug      bool
}

// NewClient constructs a new Groq client with sane defaults.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		debug:      os.Getenv("ENV") == "development",
	}
}

// CreateChatCompletion performs a chat-completion request and returns the
// parsed response. Non-2xx responses surface the raw body so callers can log
// the upstream error verbatim.
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if c.debug {
		log.Debug().Str("model", req.Model).Int("status", resp.StatusCode).Msg("groq chat completion")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("groq API error (%d): %s", resp.StatusCode, string(body))
	}

	var out ChatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("no choices in groq response")
	}
	return &out, nil
}
