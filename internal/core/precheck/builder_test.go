package precheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/tax-copilot/internal/core/model"
)

func organizedSessionData() map[string]interface{} {
	return map[string]interface{}{
		"basic_info": map[string]interface{}{
			"filing_status": "mfj",
			"state":         "ca",
		},
		"income": map[string]interface{}{
			"total_income":     float64(85000),
			"w2_count":         float64(1),
			"ira_contribution": float64(6000),
		},
		"deductions": map[string]interface{}{
			"student_loan_interest": float64(2500),
			"itemized":              false,
		},
		"dependents": map[string]interface{}{
			"count":                     float64(2),
			"ages":                      []interface{}{float64(5), float64(8)},
			"claiming_child_tax_credit": true,
		},
	}
}

func TestBuildFromSessionMapsOrganizedData(t *testing.T) {
	session := model.NewSession("sess_test", "alice", 2024, model.DefaultTopics())
	session.ExtractedData = organizedSessionData()

	profile := NewProfileBuilder().BuildFromSession(session)

	assert.Equal(t, "alice", profile.UserID)
	assert.Equal(t, 2024, profile.TaxYear)
	assert.Equal(t, model.FilingMarriedFilingJointly, profile.FilingStatus)
	assert.Equal(t, "CA", profile.State)
	assert.Equal(t, model.FromDollars(85000), profile.Income.TotalIncome)
	assert.Equal(t, 1, profile.Income.W2Count)
	assert.Equal(t, model.FromDollars(6000), profile.Income.IRAContribution)
	assert.Equal(t, model.FromDollars(2500), profile.Deductions.StudentLoanInterest)
	assert.False(t, profile.Deductions.Itemized)
	assert.Equal(t, 2, profile.Dependents.Count)
	assert.Equal(t, []int{5, 8}, profile.Dependents.Ages)
	assert.True(t, profile.Dependents.ClaimingChildTaxCredit)
	assert.Equal(t, model.CollectedViaQuestioning, profile.CollectedVia)
	assert.Equal(t, "sess_test", profile.SessionID)
	assert.Equal(t, "alice_2024", profile.ProfileID())
}

func TestBuildFromSessionIncomeAliases(t *testing.T) {
	session := model.NewSession("sess_test", "bob", 2024, nil)
	session.ExtractedData = map[string]interface{}{
		"income": map[string]interface{}{
			"annual_salary": float64(72000),
		},
	}

	profile := NewProfileBuilder().BuildFromSession(session)

	assert.Equal(t, model.FromDollars(72000), profile.Income.TotalIncome)
	assert.Equal(t, 1, profile.Income.W2Count, "positive income implies at least one W-2")
}

func TestBuildFromSessionSumsIncomeComponents(t *testing.T) {
	session := model.NewSession("sess_test", "bob", 2024, nil)
	session.ExtractedData = map[string]interface{}{
		"income": map[string]interface{}{
			"investment_income":      float64(4000),
			"rental_income":          float64(18000),
			"self_employment_income": float64(30000),
		},
	}

	profile := NewProfileBuilder().BuildFromSession(session)

	assert.Equal(t, model.FromDollars(52000), profile.Income.TotalIncome)
}

func TestBuildFromSessionSumsItemizedComponents(t *testing.T) {
	session := model.NewSession("sess_test", "carol", 2024, nil)
	session.ExtractedData = map[string]interface{}{
		"deductions": map[string]interface{}{
			"itemized":                 true,
			"charitable_contributions": float64(3000),
			"mortgage_interest":        float64(9500),
			"state_local_taxes":        float64(10000),
		},
	}

	profile := NewProfileBuilder().BuildFromSession(session)

	assert.True(t, profile.Deductions.Itemized)
	assert.Equal(t, model.FromDollars(22500), profile.Deductions.ItemizedTotal)
}

func TestBuildFromSessionEmptyData(t *testing.T) {
	session := model.NewSession("sess_test", "dave", 2024, nil)

	profile := NewProfileBuilder().BuildFromSession(session)

	assert.Equal(t, model.FilingUnknown, profile.FilingStatus)
	assert.True(t, profile.Income.TotalIncome.IsZero())
	assert.Equal(t, 0, profile.Income.W2Count)
	assert.Equal(t, 0, profile.Dependents.Count)
	assert.Empty(t, profile.ConfidenceScores)
}

func TestNormalizeFilingStatus(t *testing.T) {
	cases := map[string]string{
		"single":                    model.FilingSingle,
		"mfj":                       model.FilingMarriedFilingJointly,
		"Married Filing Jointly":    model.FilingMarriedFilingJointly,
		"married_filing_separately": model.FilingMarriedFilingSeparately,
		"MFS":                       model.FilingMarriedFilingSeparately,
		"hoh":                       model.FilingHeadOfHousehold,
		"head of household":         model.FilingHeadOfHousehold,
		"  single  ":                model.FilingSingle,
		"widowed":                   model.FilingUnknown,
		"":                          model.FilingUnknown,
	}
	for raw, want := range cases {
		assert.Equal(t, want, normalizeFilingStatus(raw), "input %q", raw)
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  model.Money
	}{
		{"nil", nil, model.Money{}},
		{"int is cents", 2500, model.FromCents(2500)},
		{"int64 is cents", int64(123456), model.FromCents(123456)},
		{"float is dollars", float64(85000), model.FromDollars(85000)},
		{"float with fraction", 2500.50, model.FromCents(250050)},
		{"formatted string", "$2,500.50", model.FromCents(250050)},
		{"hedged string", "around $3,000", model.FromDollars(3000)},
		{"small bare string is dollars", "6000", model.FromDollars(6000)},
		{"large bare string is cents", "8500000", model.FromCents(8500000)},
		{"decimal string is dollars", "85000.00", model.FromDollars(85000)},
		{"empty string", "", model.Money{}},
		{"no digits", "none", model.Money{}},
		{"money passthrough", model.FromCents(42), model.FromCents(42)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseMoney(tc.input))
		})
	}
}

func TestConfidenceScores(t *testing.T) {
	session := model.NewSession("sess_test", "alice", 2024, nil)
	session.ExtractedData = organizedSessionData()

	profile := NewProfileBuilder().BuildFromSession(session)

	require.NotEmpty(t, profile.ConfidenceScores)
	assert.Equal(t, 0.9, profile.ConfidenceScores["filing_status"])
	assert.Equal(t, 0.9, profile.ConfidenceScores["state"])
	assert.Equal(t, 0.95, profile.ConfidenceScores["income.total_income"])
	assert.Equal(t, 0.95, profile.ConfidenceScores["income.w2_count"])
	assert.Equal(t, 0.85, profile.ConfidenceScores["deductions.student_loan_interest"])
	assert.Equal(t, 0.9, profile.ConfidenceScores["dependents.count"])
	assert.Equal(t, 0.85, profile.ConfidenceScores["dependents.ages"])
}

func TestConfidenceScoresHedgedIncome(t *testing.T) {
	session := model.NewSession("sess_test", "alice", 2024, nil)
	session.ExtractedData = map[string]interface{}{
		"income": map[string]interface{}{
			"total_income": "around 85000",
		},
	}

	profile := NewProfileBuilder().BuildFromSession(session)

	assert.Equal(t, 0.7, profile.ConfidenceScores["income.total_income"])
}

func TestCompleteness(t *testing.T) {
	builder := NewProfileBuilder()

	assert.Equal(t, 0.0, builder.Completeness(map[string]interface{}{}))

	full := map[string]interface{}{
		"basic_info": map[string]interface{}{"filing_status": "single", "state": "WA"},
		"income": map[string]interface{}{
			"total_income":     float64(50000),
			"w2_count":         float64(1),
			"ira_contribution": float64(0),
		},
		"deductions": map[string]interface{}{
			"student_loan_interest": float64(0),
			"itemized":              false,
		},
		"dependents": map[string]interface{}{"count": float64(0)},
	}
	assert.InDelta(t, 1.0, builder.Completeness(full), 1e-9)

	partial := map[string]interface{}{
		"basic_info": map[string]interface{}{
			"filing_status": "single",
			"state":         "WA",
		},
		"income": map[string]interface{}{"total_income": float64(50000)},
	}
	// 2 of 3 required (70%) plus 1 of 5 optional (30%).
	assert.InDelta(t, 0.7*2.0/3.0+0.3*1.0/5.0, builder.Completeness(partial), 1e-9)
}

func TestMissingFields(t *testing.T) {
	builder := NewProfileBuilder()

	missing := builder.MissingFields(map[string]interface{}{})
	assert.ElementsMatch(t, []string{
		"basic_info.filing_status",
		"income.total_income",
		"income.w2_count",
	}, missing)

	missing = builder.MissingFields(map[string]interface{}{
		"basic_info": map[string]interface{}{"filing_status": "single"},
		"income":     map[string]interface{}{"total_income": float64(50000)},
	})
	assert.Equal(t, []string{"income.w2_count"}, missing)
}
