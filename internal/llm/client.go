package llm

import (
	"context"
	"fmt"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	Role    string
	Content string
}

// Request is a provider-agnostic generation request. Schema, when set, is a
// JSON schema document the reply must match; providers without native JSON
// enforcement get it appended to the system prompt.
type Request struct {
	Messages     []Message
	SystemPrompt string
	Schema       string
	Temperature  float32
	MaxTokens    int
}

func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return 4096
}

type Response struct {
	Content string
	Model   string
	Usage   map[string]int
}

type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelName() string
}

func schemaInstruction(schema string) string {
	return fmt.Sprintf(
		"\n\nYou must respond with valid JSON matching this schema:\n%s\nYour entire response should be valid JSON, nothing else.",
		schema,
	)
}
