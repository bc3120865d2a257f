package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

const defaultClaudeModel = "claude-3-5-sonnet-20241022"

type ClaudeClient struct {
	client *anthropic.Client
	model  string
}

func NewClaudeClient(apiKey string, model string) *ClaudeClient {
	if model == "" {
		model = defaultClaudeModel
	}
	return &ClaudeClient{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, req Request) (*Response, error) {
	system := req.SystemPrompt

	// Anthropic takes user/assistant turns only; system content travels in
	// the request's System field.
	messages := make([]anthropic.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = strings.TrimSpace(system + "\n\n" + m.Content)
			continue
		}
		role := anthropic.RoleUser
		if m.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}
		messages = append(messages, anthropic.Message{
			Role: role,
			Content: []anthropic.MessageContent{
				anthropic.NewTextMessageContent(m.Content),
			},
		})
	}

	if req.Schema != "" {
		system = strings.TrimSpace(system + schemaInstruction(req.Schema))
	}

	request := anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		Messages:  messages,
		MaxTokens: req.maxTokens(),
		System:    system,
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		request.Temperature = &temp
	}

	resp, err := c.client.CreateMessages(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Text != nil {
			content.WriteString(*block.Text)
		}
	}
	if content.Len() == 0 {
		return nil, fmt.Errorf("no response content")
	}

	return &Response{
		Content: strings.TrimSpace(content.String()),
		Model:   string(resp.Model),
		Usage: map[string]int{
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
		},
	}, nil
}

func (c *ClaudeClient) ModelName() string {
	return c.model
}
