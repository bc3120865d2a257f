package model

import "time"

// Confidence / likelihood / effort levels used across advisory results.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// TaxCalculation is the estimated federal + state liability for a profile.
type TaxCalculation struct {
	FederalTax       Money                  `json:"federal_tax"`
	StateTax         Money                  `json:"state_tax"`
	TotalTax         Money                  `json:"total_tax"`
	EffectiveTaxRate float64                `json:"effective_tax_rate"`
	MarginalTaxRate  float64                `json:"marginal_tax_rate"`
	RefundOrOwed     Money                  `json:"refund_or_owed"`
	Breakdown        map[string]interface{} `json:"breakdown"`
	Confidence       string                 `json:"confidence"`
	Assumptions      []string               `json:"assumptions"`
}

// OptimizationStrategy is one suggested way to reduce tax liability.
type OptimizationStrategy struct {
	StrategyID          string   `json:"strategy_id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	PotentialSavings    Money    `json:"potential_savings"`
	EffortLevel         string   `json:"effort_level"`
	Deadline            string   `json:"deadline,omitempty"`
	ActionSteps         []string `json:"action_steps"`
	RisksConsiderations []string `json:"risks_considerations"`
	Confidence          string   `json:"confidence"`
}

type OptimizationReport struct {
	Strategies            []OptimizationStrategy `json:"strategies"`
	TotalPotentialSavings Money                  `json:"total_potential_savings"`
	Reasoning             string                 `json:"reasoning"`
}

// MissedDeduction is a deduction or credit the user likely qualifies for
// but did not mention during the interview.
type MissedDeduction struct {
	DeductionName    string   `json:"deduction_name"`
	Category         string   `json:"category"`
	EstimatedValue   Money    `json:"estimated_value"`
	Likelihood       string   `json:"likelihood"`
	WhySuggested     string   `json:"why_suggested"`
	FollowUpQuestion string   `json:"follow_up_question,omitempty"`
	Requirements     []string `json:"requirements"`
}

type DeductionFinderReport struct {
	MissedDeductions      []MissedDeduction `json:"missed_deductions"`
	TotalPotentialSavings Money             `json:"total_potential_savings"`
	FollowUpQuestions     []string          `json:"follow_up_questions"`
}

// AdvisoryReport is the complete output of one analysis run.
type AdvisoryReport struct {
	ReportID    string    `json:"report_id"`
	ProfileID   string    `json:"profile_id,omitempty"`
	UserID      string    `json:"user_id"`
	TaxYear     int       `json:"tax_year"`
	GeneratedAt time.Time `json:"generated_at"`

	TaxCalculation        TaxCalculation        `json:"tax_calculation"`
	OptimizationReport    OptimizationReport    `json:"optimization_report"`
	DeductionFinderReport DeductionFinderReport `json:"deduction_finder_report"`

	ExecutiveSummary   string   `json:"executive_summary"`
	TopRecommendations []string `json:"top_recommendations"`

	LLMProvider              string  `json:"llm_provider"`
	TotalAnalysisTimeSeconds float64 `json:"total_analysis_time_seconds"`
}

// PotentialSavings is the combined optimization + missed-deduction total.
func (r *AdvisoryReport) PotentialSavings() Money {
	return r.OptimizationReport.TotalPotentialSavings.Add(r.DeductionFinderReport.TotalPotentialSavings)
}
