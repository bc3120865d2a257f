package precheck

import (
	"context"
	"fmt"

	"github.com/agenthands/tax-copilot/internal/core/common"
	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/llm"
)

// Evaluation is the completion evaluator's verdict on the current topic.
type Evaluation struct {
	TopicComplete bool   `json:"topic_complete"`
	Reasoning     string `json:"reasoning"`
	NextAction    string `json:"next_action"`
	NextTopic     string `json:"next_topic,omitempty"`
	Confidence    string `json:"confidence"`
}

// Next actions the evaluator may choose.
const (
	ActionContinueTopic     = "continue_topic"
	ActionAdvanceTopic      = "advance_to_next_topic"
	ActionCompleteInterview = "complete_interview"
)

// CompletionEvaluator decides when a topic has enough information to move
// on, replacing hardcoded field checks with LLM reasoning over the
// conversation so far.
type CompletionEvaluator struct {
	LLM llm.Client
}

func NewCompletionEvaluator(client llm.Client) *CompletionEvaluator {
	return &CompletionEvaluator{LLM: client}
}

// Evaluate asks the LLM whether the current topic is complete. Callers
// treat any error as "continue the topic".
func (e *CompletionEvaluator) Evaluate(ctx context.Context, session *model.Session, currentTopic string) (*Evaluation, error) {
	resp, err := e.LLM.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Evaluate if the current topic is complete based on the conversation."},
		},
		SystemPrompt: evaluatorPrompt(session, currentTopic),
		Schema:       EvaluationSchema,
		Temperature:  0.3,
		MaxTokens:    500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate evaluation: %w", err)
	}

	evaluation, err := common.ParseValidatedJSON[Evaluation](resp.Content, EvaluationSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to parse evaluation: %w", err)
	}
	return &evaluation, nil
}

// FallbackEvaluation keeps the interview on the current topic when the
// evaluator itself fails.
func FallbackEvaluation(reason string) *Evaluation {
	return &Evaluation{
		TopicComplete: false,
		Reasoning:     reason,
		NextAction:    ActionContinueTopic,
		Confidence:    model.LevelLow,
	}
}
