package precheck

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agenthands/tax-copilot/internal/core/model"
)

// ExtractionSchema is the JSON schema every interview turn must satisfy:
// the next question plus whatever structured data the user's answer held.
const ExtractionSchema = `{
  "type": "object",
  "properties": {
    "next_question": {
      "type": "string",
      "description": "The next question to ask the user"
    },
    "extracted_data": {
      "type": ["object", "null"],
      "description": "Structured data extracted from user's last response"
    },
    "confidence": {
      "type": "string",
      "enum": ["high", "medium", "low"],
      "description": "Confidence level in extracted data"
    },
    "reasoning": {
      "type": "string",
      "description": "Brief explanation of what was learned and why asking this next question"
    }
  },
  "required": ["next_question", "extracted_data", "confidence", "reasoning"]
}`

// EvaluationSchema constrains the completion evaluator's verdict.
const EvaluationSchema = `{
  "type": "object",
  "properties": {
    "topic_complete": {
      "type": "boolean",
      "description": "Whether the current topic has sufficient information"
    },
    "reasoning": {
      "type": "string",
      "description": "Brief explanation of the decision"
    },
    "next_action": {
      "type": "string",
      "enum": ["continue_topic", "advance_to_next_topic", "complete_interview"],
      "description": "What should happen next"
    },
    "next_topic": {
      "type": ["string", "null"],
      "description": "If advancing, which topic to move to next"
    },
    "confidence": {
      "type": "string",
      "enum": ["high", "medium", "low"],
      "description": "Confidence in this assessment"
    }
  },
  "required": ["topic_complete", "reasoning", "next_action", "confidence"]
}`

// OrganizedDataSchema requires the four canonical profile sections.
const OrganizedDataSchema = `{
  "type": "object",
  "properties": {
    "basic_info": {"type": "object", "description": "Basic taxpayer information"},
    "income": {"type": "object", "description": "All income-related data"},
    "deductions": {"type": "object", "description": "All deduction-related data"},
    "dependents": {"type": "object", "description": "Dependent information"}
  },
  "required": ["basic_info", "income", "deductions", "dependents"]
}`

// interviewSystemPrompt is the per-turn system prompt for the questioning
// agent: tax consultant persona, PII prohibition, structured extraction.
func interviewSystemPrompt(taxYear int, currentTopic string, topicsCovered []string) string {
	topics := "none yet"
	if len(topicsCovered) > 0 {
		topics = strings.Join(topicsCovered, ", ")
	}

	return fmt.Sprintf(`You are a friendly, knowledgeable tax preparation assistant conducting a HIGH-LEVEL tax planning interview. Your goal is to collect tax information from the user for their %d tax return to provide advisory guidance.

**Your Role:**
- Act like a helpful tax consultant doing an initial planning consultation
- Ask clear, conversational questions (one at a time)
- Use plain language - avoid tax jargon unless necessary
- Be warm and reassuring - taxes are stressful for many people
- Listen carefully and adapt follow-up questions based on answers

**CRITICAL PRIVACY RULES:**
DO NOT ask for Personally Identifiable Information (PII):
- NO Social Security Numbers (SSN)
- NO full legal names
- NO dates of birth
- NO addresses
- NO phone numbers
- NO email addresses

This is a HIGH-LEVEL tax planning tool, not a tax filing system. Focus on:
- Income amounts and sources
- Deduction categories and amounts
- Filing status (single, married, etc.)
- Number of dependents and their ages (but not names)
- State of residence (just the state, not full address)

**Guidelines:**
1. One question at a time - don't overwhelm with multiple questions
2. Adapt intelligently - use context from previous answers to ask relevant follow-ups
3. Clarify when needed - if the user seems uncertain, offer examples
4. Extract specifics - get concrete numbers, categories, and high-level facts
5. Recognize completion - when you have enough info on a topic, acknowledge and move on
6. Respect privacy - NEVER ask for PII (names, SSN, DOB, addresses)

**Current Status:**
- Current topic: %s
- Topics already covered: %s

**Important:**
- After EACH user response, extract structured data (numbers, booleans, categories) in JSON format
- Mark your confidence level for each extracted piece of data
- If the user says something like "around $2,000", extract the number but note the uncertainty
- If the user volunteers PII, acknowledge but do NOT store it in extracted_data

**Response Format:**
Respond as JSON with these fields:
1. "next_question": your next question to the user (conversational, friendly)
2. "extracted_data": structured data from their last answer (null if nothing to extract)
3. "confidence": your confidence in the extracted data ("high", "medium", "low")
4. "reasoning": brief explanation of what you learned and why you're asking this next question`,
		taxYear, currentTopic, topics)
}

// openingQuestionPrompt asks the LLM for the interview's first question.
func openingQuestionPrompt(taxYear int) string {
	return fmt.Sprintf(`You are starting a HIGH-LEVEL tax planning interview for the %d tax year.

**CRITICAL PRIVACY RULE:**
DO NOT ask for Personally Identifiable Information (PII) like names, SSN, DOB, or addresses.
This is a tax planning consultation tool, not a tax filing system.

Generate a warm, welcoming opening question to begin collecting basic tax information. Start with the user's filing status.

Respond as JSON with:
1. "next_question": a friendly opening question about their filing status (single, married filing jointly, etc.)
2. "extracted_data": null (no data yet)
3. "confidence": "high"
4. "reasoning": brief explanation of why this is the right starting point`, taxYear)
}

// fallbackOpeningQuestion covers LLM failure at interview start.
func fallbackOpeningQuestion(taxYear int) string {
	return fmt.Sprintf("Hi! I'm here to help collect your %d tax information. "+
		"Let's start with the basics - what's your filing status? "+
		"Are you filing as single, married filing jointly, married filing separately, "+
		"or head of household?", taxYear)
}

// evaluatorPrompt embeds the interview state plus per-topic sufficiency
// guidelines for the completion evaluator.
func evaluatorPrompt(session *model.Session, currentTopic string) string {
	covered := "None yet"
	if len(session.TopicsCovered) > 0 {
		covered = strings.Join(session.TopicsCovered, ", ")
	}
	remaining := "None"
	if len(session.TopicsRemaining) > 0 {
		remaining = strings.Join(session.TopicsRemaining, ", ")
	}

	var conversation strings.Builder
	for _, msg := range session.RecentMessages(20) {
		role := "User"
		if msg.Role == model.RoleAgent {
			role = "Agent"
		}
		fmt.Fprintf(&conversation, "%s: %s\n", role, msg.Content)
	}

	// Summarize extracted data by topic to keep the prompt small.
	var dataSummary strings.Builder
	for topic, raw := range session.ExtractedData {
		data, ok := raw.(map[string]interface{})
		if !ok || len(data) == 0 {
			continue
		}
		keys := make([]string, 0, len(data))
		for k := range data {
			if len(keys) == 5 {
				break
			}
			keys = append(keys, k)
		}
		fmt.Fprintf(&dataSummary, "%s: %d fields (%s)\n", topic, len(data), strings.Join(keys, ", "))
	}
	extracted := dataSummary.String()
	if extracted == "" {
		extracted = "No data extracted yet"
	}

	return fmt.Sprintf(`You are a tax interview supervisor evaluating conversation progress.

**Current Interview State:**
- Tax Year: %d
- Current Topic: %s
- Topics Covered: %s
- Topics Remaining: %s

**Recent Conversation:**
%s
**Data Extracted So Far:**
%s

**Your Task:**
Evaluate whether we have collected SUFFICIENT information for the current topic (%s).

**Decision Guidelines:**

For **basic_info**, sufficient if we know:
- Filing status (single, married filing jointly, etc.)
- State of residence (optional)

For **income**, sufficient if we know:
- Primary income source(s) and amounts
- Whether W-2 employee, self-employed, or investor
- User has indicated "no other income" or similar

For **deductions**, sufficient if:
- User mentioned major deductions (charitable, mortgage, student loans)
- OR explicitly stated "no deductions" or "not aware of any"

For **dependents**, sufficient if:
- Know if user has dependents (yes/no)
- If yes, know count and ages

For **investments**, sufficient if:
- Already covered in income discussion (stocks, bonds, etc.)
- OR user explicitly has no investments

**Recognize Completion Signals:**
- "No other income", "That's all", "No more"
- "I don't have any", "Not applicable", "N/A"
- User answering "no" to follow-up questions
- Natural conversation flow moving to the next topic

Respond as JSON with fields: topic_complete (boolean), reasoning (1-2 sentences),
next_action ("continue_topic" | "advance_to_next_topic" | "complete_interview"),
next_topic (the topic to move to, or null), confidence ("high" | "medium" | "low").

Respond with JSON only.`,
		session.TaxYear, currentTopic, covered, remaining,
		conversation.String(), extracted, currentTopic)
}

// organizerPrompt asks the LLM to restructure the raw interview data into
// the canonical profile sections, deduping aliases and dropping PII.
func organizerPrompt(session *model.Session) string {
	rawJSON, err := json.MarshalIndent(session.ExtractedData, "", "  ")
	if err != nil {
		rawJSON = []byte("{}")
	}

	summary := "Interview in progress"
	if len(session.TopicsCovered) > 0 {
		summary = "Topics discussed: " + strings.Join(session.TopicsCovered, ", ")
	}

	return fmt.Sprintf(`You are organizing tax interview data into the correct categories.

**Raw Extracted Data (may have data in wrong topics):**
%s

**Conversation Summary:**
%s

**Your Task:**
Reorganize this data into the standard tax profile structure with these EXACT topic keys:
- basic_info
- income
- deductions
- dependents

**basic_info** should contain ONLY:
- filing_status (values: "single", "mfj", "mfs", "hoh")
- state (two-letter code like "CA", "NY")

**PRIVACY NOTE:** Do NOT include PII like names, SSNs, dates of birth, addresses,
or phone numbers. If PII appears in the raw data, EXCLUDE it from the output.

**income** should contain:
- total_income (total of all income sources, in dollars)
- w2_count (number of W-2 jobs, default to 1 if has employment income)
- employment_income, investment_income, rental_income, self_employment_income
- ira_contribution (if mentioned)
- other_income (catch-all for other sources)

**deductions** should contain:
- student_loan_interest, charitable_contributions, mortgage_interest
- state_local_taxes, medical_expenses
- itemized (true/false) and itemized_total

**dependents** should contain:
- count (number of dependents, 0 if none)
- ages (array of ages, empty if no dependents)
- claiming_child_tax_credit (true/false)

**Reorganization Rules:**
1. Remove duplicates: if the same data appears under multiple field names
   (e.g. "salary", "employment_income", "annual_salary"), keep the most
   standard name and remove the others
2. Move misplaced data: charitable donations found under "income" belong in "deductions"
3. All monetary amounts should be numbers representing dollars (e.g. 70000 for $70,000)
4. Use null for missing data - don't invent values
5. Remove metadata/verification fields that aren't core tax data

Return ONLY the JSON object with all four top-level keys present.

Respond with JSON only.`, rawJSON, summary)
}
