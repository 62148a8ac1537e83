package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"podium/config"
	podium_errors "podium/pkg/errors"
)

const systemPrompt = `You draft speech proposals for a software community.
Given an abstract, produce a catchy talk title and a 2-3 paragraph description.
Respond with a JSON object: {"title": "...", "description": "..."}.`

// Draft is a generated starting point for a speech application form.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Client drafts application fields from a free-form abstract.
type Client struct {
	api   openai.Client
	model string
}

func NewClient(cfg config.AgentConfig) *Client {
	return &Client{
		api:   openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey)),
		model: cfg.Model,
	}
}

func (c *Client) Draft(ctx context.Context, abstract string) (Draft, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(abstract),
		},
	})
	if err != nil {
		return Draft{}, fmt.Errorf("%w: draft completion: %v", podium_errors.ErrExternalService, err)
	}
	if len(resp.Choices) == 0 {
		return Draft{}, fmt.Errorf("%w: draft completion returned no choices", podium_errors.ErrExternalService)
	}

	var d Draft
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &d); err != nil {
		return Draft{}, fmt.Errorf("%w: unreadable draft: %v", podium_errors.ErrExternalService, err)
	}
	return d, nil
}
