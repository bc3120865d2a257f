package advisory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agenthands/tax-copilot/internal/core/model"
)

var effortEmoji = map[string]string{
	model.LevelLow:    "🟢",
	model.LevelMedium: "🟡",
	model.LevelHigh:   "🔴",
}

var likelihoodEmoji = map[string]string{
	model.LevelHigh:   "🟢",
	model.LevelMedium: "🟡",
	model.LevelLow:    "🔴",
}

func emojiFor(table map[string]string, level string) string {
	if e, ok := table[level]; ok {
		return e
	}
	return "⚪"
}

func levelLabel(level string) string {
	switch level {
	case model.LevelLow:
		return "Low"
	case model.LevelMedium:
		return "Medium"
	case model.LevelHigh:
		return "High"
	case "":
		return "Unknown"
	default:
		return strings.ToUpper(level[:1]) + level[1:]
	}
}

// centsValue reads a cents amount out of a breakdown map, which holds
// float64 after a JSON round trip and int64 when built in code.
func centsValue(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func federalBreakdownCents(calc *model.TaxCalculation, key string) (int64, bool) {
	federal, ok := calc.Breakdown["federal"].(map[string]interface{})
	if !ok {
		return 0, false
	}
	v, ok := federal[key]
	if !ok {
		return 0, false
	}
	return centsValue(v)
}

// ToMarkdown renders a report for terminal display.
func ToMarkdown(report *model.AdvisoryReport, profile *model.TaxProfile) string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format+"\n", args...)
	}
	blank := func() { b.WriteString("\n") }
	rule := func() {
		b.WriteString("---\n\n")
	}

	line("# Tax Analysis Report - %d", report.TaxYear)
	blank()
	line("**Generated**: %s", report.GeneratedAt.Format("January 02, 2006 at 03:04 PM"))
	line("**Report ID**: %s", report.ReportID)
	line("**Filing Status**: %s", strings.ToUpper(profile.FilingStatus))
	if profile.State != "" {
		line("**State**: %s", strings.ToUpper(profile.State))
	}
	blank()
	rule()

	line("## Executive Summary")
	blank()
	line("%s", report.ExecutiveSummary)
	blank()
	rule()

	calc := report.TaxCalculation
	line("## Tax Liability Breakdown")
	blank()
	line("| Category              | Amount      |")
	line("|-----------------------|-------------|")
	line("| Total Income          | %s |", profile.Income.TotalIncome)
	if agi, ok := federalBreakdownCents(&calc, "agi"); ok {
		line("| Adjusted Gross Income | %s |", model.FromCents(agi))
	}
	if taxable, ok := federalBreakdownCents(&calc, "taxable_income"); ok {
		line("| Taxable Income        | %s |", model.FromCents(taxable))
	}
	line("| Federal Tax           | %s |", calc.FederalTax)
	line("| State Tax             | %s |", calc.StateTax)
	line("| **Total Tax**         | **%s** |", calc.TotalTax)
	line("| **Effective Rate**    | **%.1f%%** |", calc.EffectiveTaxRate)
	line("| **Marginal Rate**     | **%.1f%%** |", calc.MarginalTaxRate)
	blank()
	line("*Confidence Level: %s*", strings.ToUpper(calc.Confidence))
	blank()
	rule()

	if len(report.OptimizationReport.Strategies) > 0 {
		line("## Top Optimization Strategies")
		blank()
		line("*Potential Total Savings: %s*", report.OptimizationReport.TotalPotentialSavings)
		blank()
		for i, strategy := range topStrategies(report.OptimizationReport.Strategies, 5) {
			emoji := "💵"
			if strategy.PotentialSavings.Cents >= 100_000 {
				emoji = "💰"
			}
			line("### %d. %s %s Est. Savings: %s", i+1, strategy.Title, emoji, strategy.PotentialSavings)
			blank()
			line("%s", strategy.Description)
			blank()
			if len(strategy.ActionSteps) > 0 {
				line("**Action Steps**:")
				for _, step := range strategy.ActionSteps {
					line("- %s", step)
				}
				blank()
			}
			if strategy.Deadline != "" {
				line("**Deadline**: %s", strategy.Deadline)
				blank()
			}
			line("**Effort**: %s %s", emojiFor(effortEmoji, strategy.EffortLevel), levelLabel(strategy.EffortLevel))
			blank()
			if len(strategy.RisksConsiderations) > 0 {
				line("**Considerations**:")
				for _, risk := range strategy.RisksConsiderations {
					line("- %s", risk)
				}
				blank()
			}
			rule()
		}
	}

	if len(report.DeductionFinderReport.MissedDeductions) > 0 {
		line("## Potentially Missed Deductions")
		blank()
		line("*Potential Total Savings: %s*", report.DeductionFinderReport.TotalPotentialSavings)
		blank()
		for _, deduction := range topDeductions(report.DeductionFinderReport.MissedDeductions, 5) {
			line("### %s %s (Est. %s)",
				deduction.DeductionName,
				emojiFor(likelihoodEmoji, deduction.Likelihood),
				deduction.EstimatedValue)
			blank()
			line("%s", deduction.WhySuggested)
			blank()
			if deduction.FollowUpQuestion != "" {
				line("**Question**: %s", deduction.FollowUpQuestion)
				blank()
			}
			if len(deduction.Requirements) > 0 {
				line("**Requirements**:")
				for _, req := range deduction.Requirements {
					line("- %s", req)
				}
				blank()
			}
			rule()
		}
	}

	if len(report.TopRecommendations) > 0 {
		line("## Action Plan")
		blank()
		for i, rec := range report.TopRecommendations {
			line("%d. %s", i+1, rec)
		}
		blank()
		rule()
	}

	if len(calc.Assumptions) > 0 {
		line("## Assumptions")
		blank()
		for _, assumption := range calc.Assumptions {
			line("- %s", assumption)
		}
		blank()
		rule()
	}

	line("## Disclaimer")
	blank()
	line("This analysis is for planning purposes only and does not constitute " +
		"professional tax advice. Tax laws are complex and subject to change. " +
		"Consult a licensed tax professional or CPA before making tax decisions.")

	return b.String()
}

// ToJSON renders the report for programmatic access.
func ToJSON(report *model.AdvisoryReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(data), nil
}

func topStrategies(strategies []model.OptimizationStrategy, n int) []model.OptimizationStrategy {
	if len(strategies) > n {
		return strategies[:n]
	}
	return strategies
}

func topDeductions(deductions []model.MissedDeduction, n int) []model.MissedDeduction {
	if len(deductions) > n {
		return deductions[:n]
	}
	return deductions
}

// buildExecutiveSummary is the deterministic fallback when the LLM
// cannot produce a summary.
func buildExecutiveSummary(
	profile *model.TaxProfile,
	calc *model.TaxCalculation,
	optimization *model.OptimizationReport,
	missed *model.DeductionFinderReport,
) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Based on your %d tax profile with an income of %s, your estimated federal tax liability is %s (%.1f%% effective rate). ",
		profile.TaxYear, profile.Income.TotalIncome, calc.FederalTax, calc.EffectiveTaxRate)

	if profile.State != "" {
		fmt.Fprintf(&b, "Your estimated state tax for %s is %s. ",
			strings.ToUpper(profile.State), calc.StateTax)
	}

	totalPotential := optimization.TotalPotentialSavings.Add(missed.TotalPotentialSavings)
	if totalPotential.IsPositive() {
		fmt.Fprintf(&b,
			"\n\nWe've identified optimization strategies and potential deductions that could save you approximately %s in taxes. "+
				"The recommendations below are prioritized by potential impact and ease of implementation.",
			totalPotential)
	} else {
		b.WriteString(
			"\n\nYour tax situation appears well-optimized. We haven't identified " +
				"significant additional tax-saving opportunities at this time.")
	}
	return b.String()
}

// buildTopRecommendations distills the findings into at most three
// action items: the two biggest strategies plus the top missed deduction.
func buildTopRecommendations(
	optimization *model.OptimizationReport,
	missed *model.DeductionFinderReport,
) []string {
	recommendations := []string{}
	for i, strategy := range optimization.Strategies {
		if i == 2 {
			break
		}
		recommendations = append(recommendations,
			fmt.Sprintf("%s (save ~%s)", strategy.Title, strategy.PotentialSavings))
	}
	if len(missed.MissedDeductions) > 0 {
		top := missed.MissedDeductions[0]
		recommendations = append(recommendations,
			fmt.Sprintf("Verify eligibility for %s (save ~%s)", top.DeductionName, top.EstimatedValue))
	}
	if len(recommendations) > 3 {
		recommendations = recommendations[:3]
	}
	return recommendations
}
