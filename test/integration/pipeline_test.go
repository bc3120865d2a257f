//go:build integration

package integration

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/tax-copilot/internal/config"
	"github.com/agenthands/tax-copilot/internal/core"
	"github.com/agenthands/tax-copilot/internal/core/advisory"
	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/core/precheck"
	"github.com/agenthands/tax-copilot/internal/llm"
	"github.com/agenthands/tax-copilot/internal/logging"
)

// Scripted interview turns. The extraction replies intentionally file data
// under the wrong topic (the turn after a transition extracts the previous
// topic's answer); the organizer reply is what puts everything right.
const (
	openingReply = `{"next_question": "Welcome! Let's get started on your 2024 taxes. What's your filing status?", "extracted_data": null, "confidence": "high", "reasoning": "Filing status determines brackets and deductions."}`

	advanceEvaluation = `{"topic_complete": true, "reasoning": "The user answered everything needed for this topic.", "next_action": "advance_to_next_topic", "next_topic": null, "confidence": "high"}`

	incomeQuestionReply = `{"next_question": "Great. What was your total household income for 2024?", "extracted_data": {"filing_status": "mfj", "state": "CA"}, "confidence": "high", "reasoning": "Captured filing status and state, moving to income."}`

	deductionsQuestionReply = `{"next_question": "Any deductions I should know about, like student loan interest or charitable giving?", "extracted_data": {"total_income": 95000, "w2_count": 2, "ira_contribution": 5000}, "confidence": "high", "reasoning": "Income details captured, moving to deductions."}`

	dependentsQuestionReply = `{"next_question": "Do you have any dependents?", "extracted_data": {"student_loan_interest": 1200, "itemized": false}, "confidence": "high", "reasoning": "Deductions captured, moving to dependents."}`

	closingReply = `{"next_question": "That's everything I need. Thanks for walking through it with me!", "extracted_data": {"count": 1, "ages": [7], "claiming_child_tax_credit": true}, "confidence": "high", "reasoning": "All topics covered."}`

	organizedDataReply = `{
		"basic_info": {"filing_status": "mfj", "state": "CA"},
		"income": {"total_income": 95000, "w2_count": 2, "ira_contribution": 5000},
		"deductions": {"student_loan_interest": 1200, "itemized": false},
		"dependents": {"count": 1, "ages": [7], "claiming_child_tax_credit": true}
	}`
)

// Scripted advisory replies.
const (
	federalEstimateReply = `{"federal_tax": 1263800, "breakdown": {"adjusted_gross_income": 9000000, "taxable_income": 6080000, "total_income": 9500000, "effective_tax_rate": 13.3, "marginal_tax_rate": 22.0}, "assumptions": ["Standard deduction applied for married filing jointly"], "confidence": "high"}`

	stateEstimateReply = `{"state_tax": 285000, "state_tax_rate": 3.0, "notes": ["CA tax after exemption credits"], "confidence": "medium"}`

	strategiesReply = `{"strategies": [{"strategy_id": "max_ira", "title": "Max out traditional IRA", "description": "Contribute the remaining headroom before the filing deadline.", "potential_savings": 44000, "effort_level": "low", "deadline": "April 15, 2025", "confidence": "high"}], "reasoning": "IRA headroom remains."}`

	missedDeductionsReply = `{"missed_deductions": [{"deduction_name": "Child and Dependent Care Credit", "category": "credit", "estimated_value": 60000, "likelihood": "high", "why_suggested": "Daycare costs for your 7-year-old may qualify.", "follow_up_question": "Did you pay for child care so both spouses could work?"}]}`

	execSummaryReply = `{"executive_summary": "Your 2024 combined liability comes to about $15,488 with clear savings available.", "top_recommendations": ["Max out traditional IRA (save ~$440.00)", "Confirm child care credit eligibility"]}`
)

// scriptedClient answers every prompt the pipeline produces, keyed on
// distinctive fragments of each system prompt.
func scriptedClient() *llm.MockClient {
	script := []struct {
		marker string
		reply  string
	}{
		{"starting a HIGH-LEVEL tax planning interview", openingReply},
		{"tax interview supervisor", advanceEvaluation},
		{"Current topic: income", incomeQuestionReply},
		{"Current topic: deductions", deductionsQuestionReply},
		{"Current topic: dependents", dependentsQuestionReply},
		{"Current topic: completed", closingReply},
		{"organizing tax interview data", organizedDataReply},
		{"federal tax code", federalEstimateReply},
		{"state income taxes", stateEstimateReply},
		{"tax planning expert", strategiesReply},
		{"tax deduction expert", missedDeductionsReply},
		{"creating an executive summary", execSummaryReply},
	}
	return &llm.MockClient{
		GenerateFunc: func(ctx context.Context, req llm.Request) (*llm.Response, error) {
			for _, step := range script {
				if strings.Contains(req.SystemPrompt, step.marker) {
					return &llm.Response{Content: step.reply, Model: "mock-model"}, nil
				}
			}
			return nil, fmt.Errorf("no scripted reply for prompt: %.80s", req.SystemPrompt)
		},
	}
}

// TestInterviewToAdvisoryPipeline drives the whole flow a user would: an
// interview collects the data, the profile lands on disk, and an analysis
// of that profile produces a saved, renderable report.
func TestInterviewToAdvisoryPipeline(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Dir = t.TempDir()

	co, err := core.NewWithClient(cfg, scriptedClient(), logging.NewTest(t))
	require.NoError(t, err)
	co.Advisor.SetOutput(io.Discard)

	start, err := co.Interviewer.StartInterview(ctx, "jordan", 2024)
	require.NoError(t, err)
	assert.Contains(t, start.FirstQuestion, "filing status")

	answers := []string{
		"Married filing jointly, we live in California.",
		"We made $95,000 across two W-2 jobs and put $5,000 into an IRA.",
		"About $1,200 of student loan interest. We take the standard deduction.",
		"One daughter, she's 7, and we claim the child tax credit. No investments.",
	}

	var turn *precheck.InterviewTurn
	for _, answer := range answers {
		turn, err = co.Interviewer.ContinueInterview(ctx, start.SessionID, answer)
		require.NoError(t, err)
	}
	require.True(t, turn.IsComplete, "interview should complete after the scripted answers")
	require.NotNil(t, turn.Profile)

	profile := turn.Profile
	assert.Equal(t, "jordan_2024", profile.ProfileID())
	assert.Equal(t, model.FilingMarriedFilingJointly, profile.FilingStatus)
	assert.Equal(t, "CA", profile.State)
	assert.Equal(t, int64(9_500_000), profile.Income.TotalIncome.Cents)
	assert.Equal(t, 2, profile.Income.W2Count)
	assert.Equal(t, int64(500_000), profile.Income.IRAContribution.Cents)
	assert.Equal(t, int64(120_000), profile.Deductions.StudentLoanInterest.Cents)
	assert.Equal(t, 1, profile.Dependents.Count)
	assert.NotEmpty(t, profile.ConfidenceScores)

	loaded, err := co.Profiles.Load("jordan", 2024)
	require.NoError(t, err)
	require.Equal(t, profile.ProfileID(), loaded.ProfileID())

	report, path, err := co.Analyze(ctx, loaded, false, true)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.FileExists(t, path)

	assert.Equal(t, "jordan_2024", report.ProfileID)
	assert.Equal(t, int64(1_548_800), report.TaxCalculation.TotalTax.Cents)
	assert.InDelta(t, 13.3, report.TaxCalculation.EffectiveTaxRate, 0.001)
	assert.Len(t, report.OptimizationReport.Strategies, 1)
	assert.Len(t, report.DeductionFinderReport.MissedDeductions, 1)
	assert.Equal(t, "mock-model", report.LLMProvider)

	saved, err := co.Reports.Load(report.ReportID)
	require.NoError(t, err)
	markdown := advisory.ToMarkdown(saved, loaded)
	assert.Contains(t, markdown, "# Tax Analysis Report - 2024")
	assert.Contains(t, markdown, "Max out traditional IRA")
	assert.Contains(t, markdown, "Child and Dependent Care Credit")
}

// TestForceCompleteBuildsProfileFromPartialData covers the escape hatch for
// interviews that stall: whatever was collected becomes a profile.
func TestForceCompleteBuildsProfileFromPartialData(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Dir = t.TempDir()

	co, err := core.NewWithClient(cfg, scriptedClient(), logging.NewTest(t))
	require.NoError(t, err)

	start, err := co.Interviewer.StartInterview(ctx, "casey", 2024)
	require.NoError(t, err)

	// One answer, then the user walks away.
	_, err = co.Interviewer.ContinueInterview(ctx, start.SessionID, "Married filing jointly, California.")
	require.NoError(t, err)

	profile, err := co.Interviewer.ForceComplete(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.FilingMarriedFilingJointly, profile.FilingStatus)
	assert.Equal(t, "CA", profile.State)

	loaded, err := co.Profiles.Load("casey", 2024)
	require.NoError(t, err)
	assert.Equal(t, "casey_2024", loaded.ProfileID())

	session, err := co.Sessions.Load(start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, session.State)
}
