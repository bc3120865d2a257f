package precheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/llm"
	"github.com/agenthands/tax-copilot/internal/logging"
	"github.com/agenthands/tax-copilot/internal/storage"
)

const openingReply = `{
	"next_question": "Welcome! To get started, what's your filing status for 2024?",
	"extracted_data": null,
	"confidence": "high",
	"reasoning": "Filing status determines everything else."
}`

const organizedReply = `{
	"basic_info": {"filing_status": "single", "state": "WA"},
	"income": {"total_income": 85000, "w2_count": 1},
	"deductions": {"student_loan_interest": 2500, "itemized": false},
	"dependents": {"count": 0, "ages": [], "claiming_child_tax_credit": false}
}`

func newTestAgent(t *testing.T, mock *llm.MockClient) (*QuestioningAgent, *storage.SessionStore, *storage.ProfileStore) {
	t.Helper()
	dir := t.TempDir()
	log := logging.NewTest(t)
	sessions, err := storage.NewSessionStore(dir, log)
	require.NoError(t, err)
	profiles, err := storage.NewProfileStore(dir, log)
	require.NoError(t, err)
	return NewQuestioningAgent(mock, sessions, profiles, log), sessions, profiles
}

// dependentsOnlySession builds a saved session one answer away from
// completion, with realistic data already collected.
func dependentsOnlySession(t *testing.T, sessions *storage.SessionStore) *model.Session {
	t.Helper()
	session, err := sessions.Create("alice", 2024, nil)
	require.NoError(t, err)
	session.TransitionState(model.StateCollectingDependents)
	for _, topic := range []string{model.TopicBasicInfo, model.TopicIncome, model.TopicDeductions, model.TopicInvestments} {
		session.MarkTopicCovered(topic)
	}
	session.UpdateExtractedData(map[string]interface{}{
		"basic_info": map[string]interface{}{"filing_status": "single", "state": "WA"},
		"income":     map[string]interface{}{"salary": float64(85000)},
		"deductions": map[string]interface{}{"student_loans": float64(2500)},
	})
	session.AddMessage(model.RoleAgent, "Do you have any dependents?", nil)
	require.NoError(t, sessions.Save(session))
	return session
}

func TestStartInterview(t *testing.T) {
	mock := &llm.MockClient{Response: openingReply}
	agent, sessions, _ := newTestAgent(t, mock)

	start, err := agent.StartInterview(context.Background(), "alice", 2024)
	require.NoError(t, err)
	assert.Equal(t, "Welcome! To get started, what's your filing status for 2024?", start.FirstQuestion)

	session, err := sessions.Load(start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCollectingBasicInfo, session.State)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, model.RoleAgent, session.Messages[0].Role)
	assert.Equal(t, start.FirstQuestion, session.Messages[0].Content)
}

func TestStartInterviewFallsBackOnLLMFailure(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("api key invalid")}
	agent, sessions, _ := newTestAgent(t, mock)

	start, err := agent.StartInterview(context.Background(), "alice", 2024)
	require.NoError(t, err, "interview starts even when the opener can't be generated")
	assert.Contains(t, start.FirstQuestion, "Hi! I'm here to help collect your 2024 tax information.")
	assert.Contains(t, start.FirstQuestion, "what's your filing status?")

	session, err := sessions.Load(start.SessionID)
	require.NoError(t, err)
	assert.Len(t, session.Messages, 1)
}

func TestContinueInterviewSessionNotFound(t *testing.T) {
	agent, _, _ := newTestAgent(t, &llm.MockClient{})

	_, err := agent.ContinueInterview(context.Background(), "sess_20240101_000000_missing0", "hello")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestContinueInterviewMidConversation(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{evalContinue, extractFilingStatus}}
	agent, sessions, _ := newTestAgent(t, mock)

	session, err := sessions.Create("alice", 2024, nil)
	require.NoError(t, err)
	session.TransitionState(model.StateCollectingBasicInfo)
	require.NoError(t, sessions.Save(session))

	turn, err := agent.ContinueInterview(context.Background(), session.SessionID, "I'm single")
	require.NoError(t, err)
	assert.Equal(t, "Great! What state do you live in?", turn.AgentResponse)
	assert.False(t, turn.IsComplete)
	assert.Equal(t, model.StateCollectingBasicInfo, turn.SessionState)
	assert.Nil(t, turn.Profile)
}

func TestContinueInterviewCompletesAndBuildsProfile(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{evalCompleteInterview, extractClosing, organizedReply}}
	agent, sessions, profiles := newTestAgent(t, mock)
	session := dependentsOnlySession(t, sessions)

	turn, err := agent.ContinueInterview(context.Background(), session.SessionID, "No dependents")
	require.NoError(t, err)
	assert.True(t, turn.IsComplete)
	assert.Equal(t, model.StateCompleted, turn.SessionState)

	require.NotNil(t, turn.Profile)
	assert.Equal(t, model.FilingSingle, turn.Profile.FilingStatus)
	assert.Equal(t, "WA", turn.Profile.State)
	assert.Equal(t, model.FromDollars(85000), turn.Profile.Income.TotalIncome)
	assert.Equal(t, 1, turn.Profile.Income.W2Count)
	assert.Equal(t, 0, turn.Profile.Dependents.Count)

	// The profile is on disk, keyed by user and year.
	saved, err := profiles.Load("alice", 2024)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, saved.SessionID)
	assert.Equal(t, model.CollectedViaQuestioning, saved.CollectedVia)

	// The session keeps the organized data.
	loaded, err := sessions.Load(session.SessionID)
	require.NoError(t, err)
	income, ok := loaded.ExtractedData["income"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(85000), income["total_income"])
}

func TestContinueInterviewCompletesDespiteOrganizerFailure(t *testing.T) {
	// Organizer returns garbage; the raw extracted data feeds the profile.
	mock := &llm.MockClient{Responses: []string{evalCompleteInterview, extractClosing, "no json here"}}
	agent, sessions, profiles := newTestAgent(t, mock)
	session := dependentsOnlySession(t, sessions)

	turn, err := agent.ContinueInterview(context.Background(), session.SessionID, "No dependents")
	require.NoError(t, err)
	assert.True(t, turn.IsComplete)
	require.NotNil(t, turn.Profile)

	// "salary" is an accepted alias for total income in raw data.
	assert.Equal(t, model.FromDollars(85000), turn.Profile.Income.TotalIncome)

	_, err = profiles.Load("alice", 2024)
	assert.NoError(t, err)
}

func TestForceComplete(t *testing.T) {
	mock := &llm.MockClient{Response: organizedReply}
	agent, sessions, profiles := newTestAgent(t, mock)
	session := dependentsOnlySession(t, sessions)

	profile, err := agent.ForceComplete(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "alice_2024", profile.ProfileID())

	loaded, err := sessions.Load(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, loaded.State)

	_, err = profiles.Load("alice", 2024)
	assert.NoError(t, err)
}

func TestResumeInterview(t *testing.T) {
	agent, sessions, _ := newTestAgent(t, &llm.MockClient{})

	session, err := sessions.Create("alice", 2024, nil)
	require.NoError(t, err)
	session.AddMessage(model.RoleAgent, "What's your filing status?", nil)
	session.AddMessage(model.RoleUser, "Single", nil)
	session.AddMessage(model.RoleAgent, "What state do you live in?", nil)
	require.NoError(t, sessions.Save(session))

	resume, err := agent.ResumeInterview(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "What state do you live in?", resume.LastQuestion)
	assert.Equal(t, 3, resume.MessageCount)
	assert.Equal(t, 2024, resume.TaxYear)
	assert.Equal(t, "alice", resume.UserID)
}

func TestResumeInterviewWithoutAgentMessages(t *testing.T) {
	agent, sessions, _ := newTestAgent(t, &llm.MockClient{})

	session, err := sessions.Create("alice", 2024, nil)
	require.NoError(t, err)

	resume, err := agent.ResumeInterview(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Let's continue where we left off.", resume.LastQuestion)
	assert.Equal(t, 0, resume.MessageCount)
}

func TestSessionSummary(t *testing.T) {
	agent, sessions, _ := newTestAgent(t, &llm.MockClient{})
	session := dependentsOnlySession(t, sessions)

	summary, err := agent.SessionSummary(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, summary.SessionID)
	assert.Equal(t, model.StateCollectingDependents, summary.State)
	assert.Equal(t, 1, summary.MessageCount)
	assert.Len(t, summary.TopicsCovered, 4)
	assert.Equal(t, []string{model.TopicDependents}, summary.TopicsRemaining)

	// filing_status is present but income.total_income and w2_count are
	// only available under aliases, which completeness doesn't resolve.
	assert.InDelta(t, 0.7*1.0/3.0+0.3*1.0/5.0, summary.Completeness, 1e-9)
	assert.Contains(t, summary.MissingFields, "income.total_income")
	assert.Contains(t, summary.MissingFields, "income.w2_count")
	assert.NotContains(t, summary.MissingFields, "basic_info.filing_status")
}
