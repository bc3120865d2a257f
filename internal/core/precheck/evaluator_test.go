package precheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/llm"
)

func TestEvaluateParsesVerdict(t *testing.T) {
	mock := &llm.MockClient{Response: `{
		"topic_complete": true,
		"reasoning": "Filing status and state are both known.",
		"next_action": "advance_to_next_topic",
		"next_topic": "income",
		"confidence": "high"
	}`}

	session := model.NewSession("sess_eval", "alice", 2024, model.DefaultTopics())
	session.AddMessage(model.RoleAgent, "What's your filing status?", nil)
	session.AddMessage(model.RoleUser, "Single, living in WA", nil)

	evaluation, err := NewCompletionEvaluator(mock).Evaluate(context.Background(), session, model.TopicBasicInfo)
	require.NoError(t, err)
	assert.True(t, evaluation.TopicComplete)
	assert.Equal(t, ActionAdvanceTopic, evaluation.NextAction)
	assert.Equal(t, model.TopicIncome, evaluation.NextTopic)
	assert.Equal(t, model.LevelHigh, evaluation.Confidence)

	require.Len(t, mock.Requests, 1)
	req := mock.Requests[0]
	assert.Equal(t, float32(0.3), req.Temperature)
	assert.Equal(t, 500, req.MaxTokens)
	assert.Contains(t, req.SystemPrompt, "Current Topic: basic_info")
	assert.Contains(t, req.SystemPrompt, "Single, living in WA")
}

func TestEvaluateAcceptsFencedJSON(t *testing.T) {
	mock := &llm.MockClient{Response: "```json\n" + `{
		"topic_complete": false,
		"reasoning": "Still missing income amounts.",
		"next_action": "continue_topic",
		"confidence": "medium"
	}` + "\n```"}

	session := model.NewSession("sess_eval", "alice", 2024, model.DefaultTopics())

	evaluation, err := NewCompletionEvaluator(mock).Evaluate(context.Background(), session, model.TopicIncome)
	require.NoError(t, err)
	assert.False(t, evaluation.TopicComplete)
	assert.Equal(t, ActionContinueTopic, evaluation.NextAction)
}

func TestEvaluateRejectsUnknownAction(t *testing.T) {
	mock := &llm.MockClient{Response: `{
		"topic_complete": false,
		"reasoning": "?",
		"next_action": "take_a_break",
		"confidence": "high"
	}`}

	session := model.NewSession("sess_eval", "alice", 2024, model.DefaultTopics())

	_, err := NewCompletionEvaluator(mock).Evaluate(context.Background(), session, model.TopicIncome)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse evaluation")
}

func TestEvaluateGenerationError(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("connection refused")}

	session := model.NewSession("sess_eval", "alice", 2024, model.DefaultTopics())

	_, err := NewCompletionEvaluator(mock).Evaluate(context.Background(), session, model.TopicIncome)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate evaluation")
}

func TestFallbackEvaluation(t *testing.T) {
	evaluation := FallbackEvaluation("evaluator unavailable")

	assert.False(t, evaluation.TopicComplete)
	assert.Equal(t, ActionContinueTopic, evaluation.NextAction)
	assert.Equal(t, model.LevelLow, evaluation.Confidence)
	assert.Equal(t, "evaluator unavailable", evaluation.Reasoning)
}
