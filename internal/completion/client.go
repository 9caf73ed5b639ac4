// Package completion calls the external text-completion service. The
// response text is opaque to this tool; failures surface as a single typed
// error and retry policy belongs to the caller.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-haiku-4-5-20251001"
	apiVersion     = "2023-06-01"
	maxTokens      = 2000
)

// Completer produces a text completion for a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Error is a collaborator failure with a human-readable message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("completion service: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("completion service: %s", e.Message)
}

// Client talks to a messages-style completion API over HTTP.
type Client struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client with the default endpoint and model.
func NewClient(apiKey string) *Client {
	return &Client{APIKey: apiKey}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Message string `json:"message"`
}

// Complete sends one prompt and returns the first text block of the
// completion. Rate limits, timeouts, and service errors all come back as a
// single *Error; the client never retries.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", &Error{Message: "API key is not configured"}
	}

	body, err := json.Marshal(messageRequest{
		Model:     c.model(),
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	url := c.baseURL() + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", &Error{Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Status: resp.StatusCode, Message: err.Error()}
	}

	var parsed messageResponse
	if jsonErr := json.Unmarshal(data, &parsed); jsonErr != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return "", &Error{Status: resp.StatusCode, Message: "malformed completion response"}
	}

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", &Error{Status: resp.StatusCode, Message: msg}
	}

	for _, block := range parsed.Content {
		if block.Text != "" {
			return block.Text, nil
		}
	}
	return "", &Error{Status: resp.StatusCode, Message: "empty completion"}
}

func (c *Client) model() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModel
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}
