package model

import "time"

// ConversationState tracks progress through the tax interview flow.
type ConversationState string

const (
	StateStarted               ConversationState = "STARTED"
	StateCollectingBasicInfo   ConversationState = "COLLECTING_BASIC_INFO"
	StateCollectingIncome      ConversationState = "COLLECTING_INCOME"
	StateCollectingDeductions  ConversationState = "COLLECTING_DEDUCTIONS"
	StateCollectingDependents  ConversationState = "COLLECTING_DEPENDENTS"
	StateCollectingInvestments ConversationState = "COLLECTING_INVESTMENTS"
	StateReviewing             ConversationState = "REVIEWING"
	StateCompleted             ConversationState = "COMPLETED"
)

// Message roles.
const (
	RoleAgent  = "agent"
	RoleUser   = "user"
	RoleSystem = "system"
)

// Interview topics, in the order the agent works through them.
const (
	TopicBasicInfo   = "basic_info"
	TopicIncome      = "income"
	TopicDeductions  = "deductions"
	TopicDependents  = "dependents"
	TopicInvestments = "investments"
)

// DefaultTopics returns the standard interview topic list.
func DefaultTopics() []string {
	return []string{TopicBasicInfo, TopicIncome, TopicDeductions, TopicDependents, TopicInvestments}
}

// ConversationMessage is a single turn in the interview transcript.
type ConversationMessage struct {
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Session is one tax interview: the transcript, the data extracted so far,
// and progress through the topic list.
type Session struct {
	SessionID       string                 `json:"session_id"`
	UserID          string                 `json:"user_id"`
	TaxYear         int                    `json:"tax_year"`
	State           ConversationState      `json:"state"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	Messages        []ConversationMessage  `json:"messages"`
	ExtractedData   map[string]interface{} `json:"extracted_data"`
	TopicsCovered   []string               `json:"topics_covered"`
	TopicsRemaining []string               `json:"topics_remaining"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// NewSession creates a session in the STARTED state with the given topics
// still to cover.
func NewSession(sessionID, userID string, taxYear int, topics []string) *Session {
	now := time.Now()
	return &Session{
		SessionID:       sessionID,
		UserID:          userID,
		TaxYear:         taxYear,
		State:           StateStarted,
		CreatedAt:       now,
		UpdatedAt:       now,
		Messages:        []ConversationMessage{},
		ExtractedData:   map[string]interface{}{},
		TopicsCovered:   []string{},
		TopicsRemaining: append([]string(nil), topics...),
	}
}

func (s *Session) AddMessage(role, content string, metadata map[string]interface{}) {
	s.Messages = append(s.Messages, ConversationMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	s.UpdatedAt = time.Now()
}

// UpdateExtractedData deep-merges new data into the session's extracted data.
// Nested maps are merged key by key; anything else is replaced.
func (s *Session) UpdateExtractedData(newData map[string]interface{}) {
	if s.ExtractedData == nil {
		s.ExtractedData = map[string]interface{}{}
	}
	deepMerge(s.ExtractedData, newData)
	s.UpdatedAt = time.Now()
}

func deepMerge(base, update map[string]interface{}) {
	for key, value := range update {
		existing, ok := base[key].(map[string]interface{})
		incoming, incomingOK := value.(map[string]interface{})
		if ok && incomingOK {
			deepMerge(existing, incoming)
			continue
		}
		base[key] = value
	}
}

func (s *Session) TransitionState(newState ConversationState) {
	s.State = newState
	s.UpdatedAt = time.Now()
}

// MarkTopicCovered moves a topic from remaining to covered. Idempotent.
func (s *Session) MarkTopicCovered(topic string) {
	covered := false
	for _, t := range s.TopicsCovered {
		if t == topic {
			covered = true
			break
		}
	}
	if !covered {
		s.TopicsCovered = append(s.TopicsCovered, topic)
	}
	for i, t := range s.TopicsRemaining {
		if t == topic {
			s.TopicsRemaining = append(s.TopicsRemaining[:i], s.TopicsRemaining[i+1:]...)
			break
		}
	}
	s.UpdatedAt = time.Now()
}

// RecentMessages returns the last count messages, oldest first.
func (s *Session) RecentMessages(count int) []ConversationMessage {
	if len(s.Messages) <= count {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-count:]
}
