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

func TestOrganizeRestructuresData(t *testing.T) {
	mock := &llm.MockClient{Response: `{
		"basic_info": {"filing_status": "single", "state": "WA"},
		"income": {"total_income": 85000, "w2_count": 1},
		"deductions": {"student_loan_interest": 2500},
		"dependents": {"count": 0, "ages": []}
	}`}

	session := model.NewSession("sess_org", "alice", 2024, model.DefaultTopics())
	session.ExtractedData = map[string]interface{}{
		"basic_info": map[string]interface{}{
			"filing_status": "single",
			"salary":        float64(85000), // landed under the wrong topic
		},
	}

	organized, err := NewDataOrganizer(mock).Organize(context.Background(), session)
	require.NoError(t, err)

	income, ok := organized["income"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(85000), income["total_income"])

	require.Len(t, mock.Requests, 1)
	req := mock.Requests[0]
	assert.Equal(t, float32(0.2), req.Temperature)
	assert.Equal(t, 2000, req.MaxTokens)
	assert.Contains(t, req.SystemPrompt, `"salary": 85000`, "raw data goes into the prompt")
}

func TestOrganizeFillsMissingSections(t *testing.T) {
	mock := &llm.MockClient{Response: `{
		"basic_info": {"filing_status": "single"},
		"income": {"total_income": 50000}
	}`}

	session := model.NewSession("sess_org", "alice", 2024, model.DefaultTopics())

	organized, err := NewDataOrganizer(mock).Organize(context.Background(), session)
	require.NoError(t, err)

	for _, key := range []string{"basic_info", "income", "deductions", "dependents"} {
		_, ok := organized[key].(map[string]interface{})
		assert.True(t, ok, "section %q should exist", key)
	}
	assert.Empty(t, organized["deductions"])
	assert.Empty(t, organized["dependents"])
}

func TestOrganizeGenerationError(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("rate limited")}

	session := model.NewSession("sess_org", "alice", 2024, model.DefaultTopics())

	_, err := NewDataOrganizer(mock).Organize(context.Background(), session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate organized data")
}

func TestOrganizeParseError(t *testing.T) {
	mock := &llm.MockClient{Response: "I could not organize the data, sorry."}

	session := model.NewSession("sess_org", "alice", 2024, model.DefaultTopics())

	_, err := NewDataOrganizer(mock).Organize(context.Background(), session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse organized data")
}
