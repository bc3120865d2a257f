package precheck

import (
	"context"
	"fmt"

	"github.com/agenthands/tax-copilot/internal/core/common"
	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/llm"
)

// DataOrganizer restructures the raw interview data into the canonical
// basic_info/income/deductions/dependents sections. Interviews often land
// fields under the wrong topic or under aliased names; this cleans that up
// before the profile is built.
type DataOrganizer struct {
	LLM llm.Client
}

func NewDataOrganizer(client llm.Client) *DataOrganizer {
	return &DataOrganizer{LLM: client}
}

// Organize returns the session's extracted data reorganized into the four
// profile sections. Callers fall back to the raw extracted data on error.
func (o *DataOrganizer) Organize(ctx context.Context, session *model.Session) (map[string]interface{}, error) {
	resp, err := o.LLM.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Reorganize the extracted tax data into the correct structure."},
		},
		SystemPrompt: organizerPrompt(session),
		Schema:       OrganizedDataSchema,
		Temperature:  0.2,
		MaxTokens:    2000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate organized data: %w", err)
	}

	organized, err := common.ParseJSON[map[string]interface{}](resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse organized data: %w", err)
	}

	// All four sections must exist even when the LLM omits empty ones.
	for _, key := range []string{"basic_info", "income", "deductions", "dependents"} {
		if _, ok := organized[key]; !ok {
			organized[key] = map[string]interface{}{}
		}
	}
	return organized, nil
}
