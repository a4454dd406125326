// Package llm adapts an OpenAI compatible chat completions endpoint to the
// quote parser and email drafter ports.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"vendorflow/internal/infrastructure/httpclient"
	"vendorflow/internal/shared/config"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Client sends chat completion requests.
type Client struct {
	http  *httpclient.Client
	model string
}

func NewClient(cfg *config.LLMConfig) *Client {
	return &Client{
		http: httpclient.New(httpclient.Options{
			Name:    "llm",
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
		}),
		model: cfg.Model,
	}
}

// complete returns the first choice's content.
func (c *Client) complete(ctx context.Context, system, user string, format *responseFormat) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0.2,
		ResponseFormat: format,
	}

	var resp chatResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// completeJSON asks for output matching schema and decodes it into out.
func (c *Client) completeJSON(ctx context.Context, system, user, name string, schema map[string]any, out any) error {
	content, err := c.complete(ctx, system, user, &responseFormat{
		Type:       "json_schema",
		JSONSchema: &jsonSchemaFormat{Name: name, Strict: true, Schema: schema},
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), out); err != nil {
		return fmt.Errorf("llm: failed to decode %s output: %w", name, err)
	}
	return nil
}

// stripCodeFence removes a ``` fence some models wrap around JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
