package precheck

import (
	"strconv"
	"strings"
	"time"

	"github.com/agenthands/tax-copilot/internal/core/model"
)

// ProfileBuilder converts a session's extracted interview data into a
// structured TaxProfile. The interview's LLM is not consistent about field
// names, so every mapping tolerates the common aliases.
type ProfileBuilder struct{}

func NewProfileBuilder() *ProfileBuilder {
	return &ProfileBuilder{}
}

// filingStatusAliases maps the short forms the organizer emits (and the
// spelled-out variants the extractor sometimes uses) onto canonical values.
var filingStatusAliases = map[string]string{
	"single":                    model.FilingSingle,
	"mfj":                       model.FilingMarriedFilingJointly,
	"married_filing_jointly":    model.FilingMarriedFilingJointly,
	"married filing jointly":    model.FilingMarriedFilingJointly,
	"mfs":                       model.FilingMarriedFilingSeparately,
	"married_filing_separately": model.FilingMarriedFilingSeparately,
	"married filing separately": model.FilingMarriedFilingSeparately,
	"hoh":                       model.FilingHeadOfHousehold,
	"head_of_household":         model.FilingHeadOfHousehold,
	"head of household":         model.FilingHeadOfHousehold,
}

func normalizeFilingStatus(raw string) string {
	if status, ok := filingStatusAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	return model.FilingUnknown
}

// BuildFromSession maps the session's extracted data (organized or raw)
// into a TaxProfile with per-field confidence scores.
func (b *ProfileBuilder) BuildFromSession(session *model.Session) *model.TaxProfile {
	data := session.ExtractedData
	basicInfo := section(data, "basic_info")

	profile := &model.TaxProfile{
		UserID:           session.UserID,
		TaxYear:          session.TaxYear,
		FilingStatus:     normalizeFilingStatus(stringValue(basicInfo["filing_status"])),
		State:            strings.ToUpper(strings.TrimSpace(stringValue(basicInfo["state"]))),
		Income:           b.buildIncome(section(data, "income")),
		Deductions:       b.buildDeductions(section(data, "deductions")),
		Dependents:       b.buildDependents(section(data, "dependents")),
		CollectedVia:     model.CollectedViaQuestioning,
		SessionID:        session.SessionID,
		ConfidenceScores: b.confidenceScores(data),
		CreatedAt:        session.CreatedAt,
		UpdatedAt:        time.Now(),
	}
	return profile
}

func (b *ProfileBuilder) buildIncome(data map[string]interface{}) model.Income {
	totalIncome := parseMoney(firstPresent(data,
		"total_income", "employment_income", "salary", "annual_salary", "income_amount"))

	// No direct total: sum the component income fields instead.
	if totalIncome.IsZero() {
		sum := parseMoney(data["employment_income"]).
			Add(parseMoney(data["investment_income"])).
			Add(parseMoney(data["rental_income"])).
			Add(parseMoney(data["self_employment_income"]))
		if sum.IsPositive() {
			totalIncome = sum
		}
	}

	w2Count := parseInt(firstPresent(data, "w2_count", "employer_count", "number_of_employers"))
	if w2Count == 0 && totalIncome.IsPositive() {
		w2Count = 1
	}

	return model.Income{
		TotalIncome: totalIncome,
		W2Count:     w2Count,
		IRAContribution: parseMoney(firstPresent(data,
			"ira_contribution", "ira_contributions", "retirement_contribution")),
	}
}

func (b *ProfileBuilder) buildDeductions(data map[string]interface{}) model.Deductions {
	studentLoanInterest := parseMoney(firstPresent(data,
		"student_loan_interest", "student_loan", "student_loans"))
	itemized := parseBool(data["itemized"])
	itemizedTotal := parseMoney(firstPresent(data,
		"itemized_total", "itemized_deductions", "total_itemized"))

	// Itemizing without a stated total: add up the named components.
	if itemizedTotal.IsZero() && itemized {
		sum := parseMoney(data["charitable_contributions"]).
			Add(parseMoney(data["mortgage_interest"])).
			Add(parseMoney(data["state_local_taxes"])).
			Add(parseMoney(data["medical_expenses"])).
			Add(studentLoanInterest)
		if sum.IsPositive() {
			itemizedTotal = sum
		}
	}

	return model.Deductions{
		StudentLoanInterest: studentLoanInterest,
		Itemized:            itemized,
		ItemizedTotal:       itemizedTotal,
	}
}

func (b *ProfileBuilder) buildDependents(data map[string]interface{}) model.Dependents {
	return model.Dependents{
		Count: parseInt(firstPresent(data, "count", "number_of_dependents", "dependent_count")),
		Ages:  parseAges(firstPresent(data, "ages", "dependent_ages", "children_ages")),
		ClaimingChildTaxCredit: parseBool(firstPresent(data,
			"claiming_child_tax_credit", "child_tax_credit", "claiming_ctc")),
	}
}

// confidenceScores attaches a heuristic confidence to each extracted field:
// high for explicit values, lower when the phrasing was vague.
func (b *ProfileBuilder) confidenceScores(data map[string]interface{}) map[string]float64 {
	scores := map[string]float64{}

	basicInfo := section(data, "basic_info")
	if truthy(basicInfo["filing_status"]) {
		scores["filing_status"] = 0.9
	}
	if truthy(basicInfo["state"]) {
		scores["state"] = 0.9
	}

	income := section(data, "income")
	if truthy(income["total_income"]) {
		scores["income.total_income"] = 0.95
		if isVagueAmount(income["total_income"]) {
			scores["income.total_income"] = 0.7
		}
	}
	if _, ok := income["w2_count"]; ok {
		scores["income.w2_count"] = 0.95
	}

	deductions := section(data, "deductions")
	if truthy(deductions["student_loan_interest"]) {
		scores["deductions.student_loan_interest"] = 0.85
	}

	dependents := section(data, "dependents")
	if _, ok := dependents["count"]; ok {
		scores["dependents.count"] = 0.9
	}
	if truthy(dependents["ages"]) {
		scores["dependents.ages"] = 0.85
	}

	return scores
}

var requiredFields = [][2]string{
	{"basic_info", "filing_status"},
	{"income", "total_income"},
	{"income", "w2_count"},
}

var optionalFields = [][2]string{
	{"basic_info", "state"},
	{"income", "ira_contribution"},
	{"deductions", "student_loan_interest"},
	{"deductions", "itemized"},
	{"dependents", "count"},
}

// Completeness scores extracted interview data from 0 (empty) to 1 (all
// fields answered), weighting required fields 70% and optional 30%.
func (b *ProfileBuilder) Completeness(data map[string]interface{}) float64 {
	var requiredPresent, optionalPresent int
	for _, field := range requiredFields {
		if section(data, field[0])[field[1]] != nil {
			requiredPresent++
		}
	}
	for _, field := range optionalFields {
		if section(data, field[0])[field[1]] != nil {
			optionalPresent++
		}
	}

	requiredScore := float64(requiredPresent) / float64(len(requiredFields))
	optionalScore := float64(optionalPresent) / float64(len(optionalFields))
	return requiredScore*0.7 + optionalScore*0.3
}

// MissingFields lists required fields the interview hasn't answered yet.
func (b *ProfileBuilder) MissingFields(data map[string]interface{}) []string {
	missing := []string{}
	for _, field := range requiredFields {
		if section(data, field[0])[field[1]] == nil {
			missing = append(missing, field[0]+"."+field[1])
		}
	}
	return missing
}

// section returns data[key] as a map, or an empty map when absent or of
// the wrong shape.
func section(data map[string]interface{}, key string) map[string]interface{} {
	if m, ok := data[key].(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

// firstPresent returns the first non-nil value among the aliased keys.
func firstPresent(data map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := data[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// parseMoney interprets the value shapes the LLM produces: Go ints are
// cents, JSON numbers (float64) are dollars, and strings like
// "around $2,000" keep only the digits: decimals and small amounts read
// as dollars, large bare integers as cents.
func parseMoney(v interface{}) model.Money {
	switch val := v.(type) {
	case nil:
		return model.Money{}
	case model.Money:
		return val
	case int:
		return model.FromCents(int64(val))
	case int64:
		return model.FromCents(val)
	case float64:
		return model.FromDollars(val)
	case string:
		var cleaned strings.Builder
		for _, r := range val {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				cleaned.WriteRune(r)
			}
		}
		s := cleaned.String()
		if s == "" {
			return model.Money{}
		}
		amount, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Money{}
		}
		if strings.Contains(val, ".") || amount < 10000 {
			return model.FromDollars(amount)
		}
		return model.FromCents(int64(amount))
	}
	return model.Money{}
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func parseInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n
		}
	}
	return 0
}

func parseBool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(strings.TrimSpace(val), "true") ||
			strings.EqualFold(strings.TrimSpace(val), "yes")
	}
	return false
}

func parseAges(v interface{}) []int {
	raw, ok := v.([]interface{})
	if !ok {
		return []int{}
	}
	ages := make([]int, 0, len(raw))
	for _, item := range raw {
		ages = append(ages, parseInt(item))
	}
	return ages
}

// truthy mirrors presence checks on loosely typed data: nil, empty
// strings, zero numbers, false, and empty lists all read as absent.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	}
	return true
}

// isVagueAmount flags hedged phrasing like "around $85,000".
func isVagueAmount(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.ToLower(s)
	for _, marker := range []string{"around", "about", "approximately", "~"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
