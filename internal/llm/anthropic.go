package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const jsonDirective = "Respond with a single JSON object. Do not include any text outside the JSON object."

// AnthropicClient implements Client on top of the Anthropic Messages API.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewAnthropicClient creates a client backed by Anthropic Claude or a
// compatible provider behind a custom base URL. timeoutSeconds bounds each
// individual call; zero disables the bound.
func NewAnthropicClient(apiKey, model, baseURL string, timeoutSeconds int) *AnthropicClient {
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: 4096,
		timeout:   time.Duration(timeoutSeconds) * time.Second,
	}
}

// Model returns the configured model identifier.
func (c *AnthropicClient) Model() string { return c.model }

// CompleteJSON sends one user message plus the JSON directive and extracts
// the JSON object from the reply. No tool calling, no multi-turn loop.
func (c *AnthropicClient) CompleteJSON(ctx context.Context, system, prompt string, temperature float64) (json.RawMessage, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.F(anthropic.Model(c.model)),
		MaxTokens:   anthropic.F(int64(c.maxTokens)),
		Temperature: anthropic.F(temperature),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt + "\n\n" + jsonDirective)),
		}),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		})
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			text += b.Text
		}
	}

	return ExtractJSON(text)
}
