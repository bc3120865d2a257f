package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey string, model string) (*GeminiClient, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages in request")
	}

	model := c.client.GenerativeModel(c.model)

	system := req.SystemPrompt
	if req.Schema != "" {
		system = strings.TrimSpace(system + schemaInstruction(req.Schema))
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if req.Temperature > 0 {
		model.SetTemperature(req.Temperature)
	}
	model.SetMaxOutputTokens(int32(req.maxTokens()))

	// Everything before the final message becomes chat history.
	chat := model.StartChat()
	for _, m := range req.Messages[:len(req.Messages)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	last := req.Messages[len(req.Messages)-1]
	resp, err := chat.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates or content")
	}

	var content strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			content.WriteString(string(txt))
		}
	}
	if content.Len() == 0 {
		return nil, fmt.Errorf("no text content in response")
	}

	usage := map[string]int{}
	if resp.UsageMetadata != nil {
		usage["input_tokens"] = int(resp.UsageMetadata.PromptTokenCount)
		usage["output_tokens"] = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &Response{
		Content: strings.TrimSpace(content.String()),
		Model:   c.model,
		Usage:   usage,
	}, nil
}

func (c *GeminiClient) ModelName() string {
	return c.model
}
