package model

import (
	"fmt"
	"time"
)

// Filing statuses the interview recognizes.
const (
	FilingSingle                  = "single"
	FilingMarriedFilingJointly    = "married_filing_jointly"
	FilingMarriedFilingSeparately = "married_filing_separately"
	FilingHeadOfHousehold         = "head_of_household"
	FilingUnknown                 = "unknown"
)

// How a profile came to exist.
const (
	CollectedViaQuestioning = "dynamic_questioning"
	CollectedViaJSONImport  = "json_import"
)

type Income struct {
	TotalIncome     Money `json:"total_income"`
	W2Count         int   `json:"w2_count"`
	IRAContribution Money `json:"ira_contribution"`
}

type Deductions struct {
	StudentLoanInterest Money `json:"student_loan_interest"`
	Itemized            bool  `json:"itemized"`
	ItemizedTotal       Money `json:"itemized_total"`
}

type Dependents struct {
	Count                  int   `json:"count"`
	Ages                   []int `json:"ages"`
	ClaimingChildTaxCredit bool  `json:"claiming_child_tax_credit"`
}

// TaxProfile is the structured tax data collected for one user and year,
// with per-field confidence scores attached by the profile builder.
type TaxProfile struct {
	UserID       string `json:"user_id,omitempty"`
	TaxYear      int    `json:"tax_year"`
	FilingStatus string `json:"filing_status"`
	State        string `json:"state,omitempty"`

	Income     Income     `json:"income"`
	Deductions Deductions `json:"deductions"`
	Dependents Dependents `json:"dependents"`

	CollectedVia     string             `json:"collected_via"`
	SessionID        string             `json:"session_id,omitempty"`
	ConfidenceScores map[string]float64 `json:"confidence_scores,omitempty"`
	CreatedAt        time.Time          `json:"created_at,omitempty"`
	UpdatedAt        time.Time          `json:"updated_at,omitempty"`
}

func NewTaxProfile(userID string, taxYear int) *TaxProfile {
	now := time.Now().UTC()
	return &TaxProfile{
		UserID:           userID,
		TaxYear:          taxYear,
		FilingStatus:     FilingUnknown,
		CollectedVia:     CollectedViaJSONImport,
		ConfidenceScores: map[string]float64{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ProfileID is the identifier used on disk and in advisory reports.
func (p *TaxProfile) ProfileID() string {
	return fmt.Sprintf("%s_%d", p.UserID, p.TaxYear)
}
