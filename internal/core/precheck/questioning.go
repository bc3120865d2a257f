package precheck

import (
	"context"
	"fmt"
	"time"

	"github.com/agenthands/tax-copilot/internal/core/common"
	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/llm"
	"github.com/agenthands/tax-copilot/internal/logging"
	"github.com/agenthands/tax-copilot/internal/storage"
)

// InterviewStart reports a newly created interview session.
type InterviewStart struct {
	SessionID     string `json:"session_id"`
	FirstQuestion string `json:"first_question"`
}

// InterviewTurn is the outcome of one exchange: the agent's reply, whether
// the interview finished, and the saved profile when it did.
type InterviewTurn struct {
	SessionID     string                  `json:"session_id"`
	AgentResponse string                  `json:"agent_response"`
	IsComplete    bool                    `json:"is_complete"`
	SessionState  model.ConversationState `json:"session_state"`
	Profile       *model.TaxProfile       `json:"profile,omitempty"`
}

// InterviewResume describes where a paused interview left off.
type InterviewResume struct {
	SessionID    string                  `json:"session_id"`
	UserID       string                  `json:"user_id"`
	TaxYear      int                     `json:"tax_year"`
	LastQuestion string                  `json:"last_question"`
	SessionState model.ConversationState `json:"session_state"`
	MessageCount int                     `json:"message_count"`
}

// SessionSummary reports interview progress: topics, completeness, and the
// data extracted so far.
type SessionSummary struct {
	SessionID       string                  `json:"session_id"`
	UserID          string                  `json:"user_id"`
	TaxYear         int                     `json:"tax_year"`
	State           model.ConversationState `json:"state"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
	MessageCount    int                     `json:"message_count"`
	TopicsCovered   []string                `json:"topics_covered"`
	TopicsRemaining []string                `json:"topics_remaining"`
	Completeness    float64                 `json:"completeness"`
	MissingFields   []string                `json:"missing_fields"`
	ExtractedData   map[string]interface{}  `json:"extracted_data"`
}

// QuestioningAgent orchestrates the tax interview end to end: it starts and
// resumes sessions, runs each exchange through the ConversationManager, and
// builds the final profile once the interview completes.
type QuestioningAgent struct {
	llm       llm.Client
	sessions  *storage.SessionStore
	profiles  *storage.ProfileStore
	manager   *ConversationManager
	organizer *DataOrganizer
	builder   *ProfileBuilder
	log       logging.Logger
}

func NewQuestioningAgent(client llm.Client, sessions *storage.SessionStore, profiles *storage.ProfileStore, log logging.Logger) *QuestioningAgent {
	if log == nil {
		log = logging.NewNop()
	}
	return &QuestioningAgent{
		llm:       client,
		sessions:  sessions,
		profiles:  profiles,
		manager:   NewConversationManager(client, sessions, log),
		organizer: NewDataOrganizer(client),
		builder:   NewProfileBuilder(),
		log:       log,
	}
}

// StartInterview creates a session, moves it into basic-info collection,
// and returns the opening question.
func (a *QuestioningAgent) StartInterview(ctx context.Context, userID string, taxYear int) (*InterviewStart, error) {
	session, err := a.sessions.Create(userID, taxYear, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start interview: %w", err)
	}
	session.TransitionState(model.StateCollectingBasicInfo)

	firstQuestion := a.openingQuestion(ctx, taxYear)
	session.AddMessage(model.RoleAgent, firstQuestion, nil)

	if err := a.sessions.Save(session); err != nil {
		return nil, err
	}

	a.log.Info("started interview", map[string]interface{}{
		"session_id": session.SessionID,
		"user_id":    userID,
		"tax_year":   taxYear,
	})
	return &InterviewStart{SessionID: session.SessionID, FirstQuestion: firstQuestion}, nil
}

// ContinueInterview processes one user response. When the exchange
// completes the interview, the extracted data is organized and the final
// profile is built and saved; a profile save failure is reported in the
// agent's reply rather than as an error, since the interview itself
// succeeded.
func (a *QuestioningAgent) ContinueInterview(ctx context.Context, sessionID, userInput string) (*InterviewTurn, error) {
	session, err := a.sessions.Load(sessionID)
	if err != nil {
		return nil, err
	}

	agentResponse, err := a.manager.ProcessUserInput(ctx, session, userInput)
	if err != nil {
		return nil, err
	}

	turn := &InterviewTurn{
		SessionID:     session.SessionID,
		AgentResponse: agentResponse,
		IsComplete:    session.State == model.StateCompleted,
		SessionState:  session.State,
	}

	if turn.IsComplete {
		profile, err := a.finalizeProfile(ctx, session)
		if err != nil {
			turn.AgentResponse = fmt.Sprintf(
				"I collected your information, but had trouble saving it: %v", err)
			return turn, nil
		}
		turn.Profile = profile
	}
	return turn, nil
}

// ResumeInterview loads a paused session and reports the last question
// asked so the conversation can pick up where it stopped.
func (a *QuestioningAgent) ResumeInterview(sessionID string) (*InterviewResume, error) {
	session, err := a.sessions.Load(sessionID)
	if err != nil {
		return nil, err
	}

	lastQuestion := "Let's continue where we left off."
	for i := len(session.Messages) - 1; i >= 0; i-- {
		if session.Messages[i].Role == model.RoleAgent {
			lastQuestion = session.Messages[i].Content
			break
		}
	}

	return &InterviewResume{
		SessionID:    session.SessionID,
		UserID:       session.UserID,
		TaxYear:      session.TaxYear,
		LastQuestion: lastQuestion,
		SessionState: session.State,
		MessageCount: len(session.Messages),
	}, nil
}

// ForceComplete ends the interview immediately and builds a profile from
// whatever has been collected so far.
func (a *QuestioningAgent) ForceComplete(ctx context.Context, sessionID string) (*model.TaxProfile, error) {
	session, err := a.sessions.Load(sessionID)
	if err != nil {
		return nil, err
	}
	session.TransitionState(model.StateCompleted)
	return a.finalizeProfile(ctx, session)
}

// SessionSummary reports a session's progress including completeness and
// the required fields still missing.
func (a *QuestioningAgent) SessionSummary(sessionID string) (*SessionSummary, error) {
	session, err := a.sessions.Load(sessionID)
	if err != nil {
		return nil, err
	}

	return &SessionSummary{
		SessionID:       session.SessionID,
		UserID:          session.UserID,
		TaxYear:         session.TaxYear,
		State:           session.State,
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
		MessageCount:    len(session.Messages),
		TopicsCovered:   session.TopicsCovered,
		TopicsRemaining: session.TopicsRemaining,
		Completeness:    a.builder.Completeness(session.ExtractedData),
		MissingFields:   a.builder.MissingFields(session.ExtractedData),
		ExtractedData:   session.ExtractedData,
	}, nil
}

// finalizeProfile reorganizes the interview data into canonical sections,
// persists the session, then builds and saves the profile. Organization
// failures fall back to the raw extracted data.
func (a *QuestioningAgent) finalizeProfile(ctx context.Context, session *model.Session) (*model.TaxProfile, error) {
	organized, err := a.organizer.Organize(ctx, session)
	if err != nil {
		a.log.Warn("data organization failed, keeping raw extracted data", map[string]interface{}{
			"session_id": session.SessionID,
			"error":      err.Error(),
		})
	} else {
		session.ExtractedData = organized
	}

	if err := a.sessions.Save(session); err != nil {
		return nil, err
	}

	profile := a.builder.BuildFromSession(session)
	if err := a.profiles.Save(profile); err != nil {
		return nil, err
	}

	a.log.Info("built profile from interview", map[string]interface{}{
		"session_id": session.SessionID,
		"profile_id": profile.ProfileID(),
	})
	return profile, nil
}

// openingQuestion asks the LLM for an interview opener, falling back to a
// fixed greeting when generation or parsing fails.
func (a *QuestioningAgent) openingQuestion(ctx context.Context, taxYear int) string {
	resp, err := a.llm.Generate(ctx, llm.Request{
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "Generate the opening question."}},
		SystemPrompt: openingQuestionPrompt(taxYear),
		Schema:       ExtractionSchema,
		Temperature:  0.7,
	})
	if err != nil {
		a.log.Warn("opening question generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return fallbackOpeningQuestion(taxYear)
	}

	reply, err := common.ParseJSON[extractionReply](resp.Content)
	if err != nil || reply.NextQuestion == "" {
		return fallbackOpeningQuestion(taxYear)
	}
	return reply.NextQuestion
}
