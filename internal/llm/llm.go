// Package llm talks to a chat-completions model through the OpenAI-compatible API.
// Gemini exposes this API at generativelanguage.googleapis.com/v1beta/openai.
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

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Response is the validated result of one model call.
type Response struct {
	Content string
}

// Model is the capability the answer composer depends on.
type Model interface {
	Invoke(ctx context.Context, prompt string) (*Response, error)
}

// Client calls an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature *float64
}

var _ Model = (*Client)(nil)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient builds a client from cfg. A missing API key is not an error here;
// Invoke reports it so the caller can degrade.
func NewClient(cfg config.LLMConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		client:      &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Invoke sends prompt as a single user message. Every failure wraps models.ErrExternalCall.
func (c *Client) Invoke(ctx context.Context, prompt string) (*Response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: %w: llm api key is not set", models.ErrExternalCall, models.ErrMissingCredentials)
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: llm request: %v", models.ErrExternalCall, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read llm response: %v", models.ErrExternalCall, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: llm status %d: %s", models.ErrExternalCall, resp.StatusCode, utils.Truncate(string(data), 300))
	}
	return decodeResponse(data)
}

// decodeResponse validates the payload down to a single content string.
func decodeResponse(data []byte) (*Response, error) {
	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode llm response: %v", models.ErrExternalCall, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: llm error: %s", models.ErrExternalCall, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		return nil, fmt.Errorf("%w: %w: no message content", models.ErrExternalCall, models.ErrEmptyResponse)
	}
	return &Response{Content: *parsed.Choices[0].Message.Content}, nil
}

// Ping sends a short prompt to check credentials and connectivity.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Invoke(ctx, "Test connection")
	return err
}
