package precheck

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthands/tax-copilot/internal/core/common"
	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/llm"
	"github.com/agenthands/tax-copilot/internal/logging"
	"github.com/agenthands/tax-copilot/internal/storage"
)

// errMalformedReply marks an LLM response that came back but couldn't be
// parsed, as opposed to a transport failure.
var errMalformedReply = errors.New("malformed interview reply")

// stateToTopic maps each conversation state to the interview topic the
// agent is collecting in that state.
var stateToTopic = map[model.ConversationState]string{
	model.StateStarted:               "getting_started",
	model.StateCollectingBasicInfo:   model.TopicBasicInfo,
	model.StateCollectingIncome:      model.TopicIncome,
	model.StateCollectingDeductions:  model.TopicDeductions,
	model.StateCollectingDependents:  model.TopicDependents,
	model.StateCollectingInvestments: model.TopicInvestments,
	model.StateCompleted:             "completed",
}

var topicToState = map[string]model.ConversationState{
	model.TopicBasicInfo:   model.StateCollectingBasicInfo,
	model.TopicIncome:      model.StateCollectingIncome,
	model.TopicDeductions:  model.StateCollectingDeductions,
	model.TopicDependents:  model.StateCollectingDependents,
	model.TopicInvestments: model.StateCollectingInvestments,
}

// stateSequence is the default interview order when the evaluator doesn't
// name a specific next topic.
var stateSequence = []model.ConversationState{
	model.StateStarted,
	model.StateCollectingBasicInfo,
	model.StateCollectingIncome,
	model.StateCollectingDeductions,
	model.StateCollectingDependents,
	model.StateCompleted,
}

// extractionReply is one interview turn from the LLM.
type extractionReply struct {
	NextQuestion  string                 `json:"next_question"`
	ExtractedData map[string]interface{} `json:"extracted_data"`
	Confidence    string                 `json:"confidence"`
	Reasoning     string                 `json:"reasoning"`
}

// ConversationManager runs the dialog flow of a tax interview: it feeds
// user input through the LLM, records extracted data under the current
// topic, and advances the conversation state when the completion
// evaluator says a topic is done.
type ConversationManager struct {
	llm       llm.Client
	sessions  *storage.SessionStore
	evaluator *CompletionEvaluator
	log       logging.Logger
}

func NewConversationManager(client llm.Client, sessions *storage.SessionStore, log logging.Logger) *ConversationManager {
	if log == nil {
		log = logging.NewNop()
	}
	return &ConversationManager{
		llm:       client,
		sessions:  sessions,
		evaluator: NewCompletionEvaluator(client),
		log:       log,
	}
}

// ProcessUserInput handles one interview turn. LLM and parse failures are
// returned as an agent response rather than an error so the interview
// keeps going; the session is always saved with the user's message.
func (m *ConversationManager) ProcessUserInput(ctx context.Context, session *model.Session, userInput string) (string, error) {
	session.AddMessage(model.RoleUser, userInput, nil)

	// The transition runs before the next question so that question is
	// asked about the right (possibly new) topic.
	m.checkStateTransition(ctx, session)

	reply, err := m.generateReply(ctx, session)
	if err != nil {
		if saveErr := m.sessions.Save(session); saveErr != nil {
			return "", saveErr
		}
		m.log.Warn("interview turn failed", map[string]interface{}{
			"session_id": session.SessionID,
			"error":      err.Error(),
		})
		if errors.Is(err, errMalformedReply) {
			return "I apologize, I had trouble processing that. Could you please rephrase your response?", nil
		}
		return fmt.Sprintf("I encountered an error: %v. Let's continue - could you tell me more?", err), nil
	}

	if len(reply.ExtractedData) > 0 {
		currentTopic := stateToTopic[session.State]
		if currentTopic == "" {
			currentTopic = "unknown"
		}
		session.UpdateExtractedData(map[string]interface{}{currentTopic: reply.ExtractedData})
	}

	confidence := reply.Confidence
	if confidence == "" {
		confidence = model.LevelMedium
	}
	session.AddMessage(model.RoleAgent, reply.NextQuestion, map[string]interface{}{"confidence": confidence})

	if err := m.sessions.Save(session); err != nil {
		return "", err
	}
	return reply.NextQuestion, nil
}

func (m *ConversationManager) generateReply(ctx context.Context, session *model.Session) (*extractionReply, error) {
	messages := make([]llm.Message, 0, len(session.Messages))
	for _, msg := range session.RecentMessages(100) {
		role := llm.RoleUser
		if msg.Role != model.RoleUser {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}

	currentTopic := stateToTopic[session.State]
	if currentTopic == "" {
		currentTopic = "general"
	}

	resp, err := m.llm.Generate(ctx, llm.Request{
		Messages:     messages,
		SystemPrompt: interviewSystemPrompt(session.TaxYear, currentTopic, session.TopicsCovered),
		Schema:       ExtractionSchema,
		Temperature:  0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate interview turn: %w", err)
	}

	reply, err := common.ParseJSON[extractionReply](resp.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedReply, err)
	}
	return &reply, nil
}

// checkStateTransition asks the evaluator whether the current topic is
// complete and advances the session accordingly. An evaluator failure is
// logged and treated as continue_topic.
func (m *ConversationManager) checkStateTransition(ctx context.Context, session *model.Session) {
	if session.State == model.StateCompleted || session.State == model.StateStarted {
		return
	}
	currentTopic := stateToTopic[session.State]

	evaluation, err := m.evaluator.Evaluate(ctx, session, currentTopic)
	if err != nil {
		m.log.Warn("completion evaluation failed", map[string]interface{}{
			"session_id": session.SessionID,
			"topic":      currentTopic,
			"error":      err.Error(),
		})
		evaluation = FallbackEvaluation("evaluator unavailable")
	}

	m.applyEvaluation(session, currentTopic, evaluation)

	if len(session.TopicsRemaining) == 0 && evaluation.TopicComplete {
		session.TransitionState(model.StateCompleted)
	}
}

func (m *ConversationManager) applyEvaluation(session *model.Session, currentTopic string, evaluation *Evaluation) {
	switch evaluation.NextAction {
	case ActionCompleteInterview:
		session.MarkTopicCovered(currentTopic)

	case ActionAdvanceTopic:
		session.MarkTopicCovered(currentTopic)
		if next, ok := topicToState[evaluation.NextTopic]; ok {
			session.TransitionState(next)
			return
		}
		if next, ok := nextInSequence(session.State); ok {
			session.TransitionState(next)
		}
	}
	// continue_topic keeps the current state.
}

func nextInSequence(current model.ConversationState) (model.ConversationState, bool) {
	for i, state := range stateSequence {
		if state == current && i < len(stateSequence)-1 {
			return stateSequence[i+1], true
		}
	}
	return "", false
}
