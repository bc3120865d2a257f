package advisory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agenthands/tax-copilot/internal/core/model"
)

// ExecutiveSummarySchema constrains the summary generation reply.
const ExecutiveSummarySchema = `{
  "type": "object",
  "properties": {
    "executive_summary": {
      "type": "string",
      "description": "2-3 paragraph summary of the tax situation and findings"
    },
    "top_recommendations": {
      "type": "array",
      "items": {"type": "string"},
      "description": "The most impactful action items, most important first"
    }
  },
  "required": ["executive_summary", "top_recommendations"]
}`

func agesLabel(ages []int) string {
	if len(ages) == 0 {
		return "none"
	}
	parts := make([]string, len(ages))
	for i, age := range ages {
		parts[i] = strconv.Itoa(age)
	}
	return strings.Join(parts, ", ")
}

func federalTaxPrompt(profile *model.TaxProfile) string {
	return fmt.Sprintf(`You are a tax calculation expert with comprehensive knowledge of the %d U.S. federal tax code.

**User's Tax Profile:**
- Filing Status: %s
- Total Income: %s
- W-2 Jobs: %d
- IRA Contribution: %s
- Student Loan Interest: %s
- Itemizing: %t
- Itemized Deductions Total: %s
- Dependents: %d (ages: %s)
- Claiming Child Tax Credit: %t

**Your Task:**
Calculate the estimated federal income tax liability for %d using the current tax code.

**Calculation Steps:**
1. Calculate Adjusted Gross Income (AGI):
   - Start with total income
   - Subtract above-the-line deductions (IRA contribution, student loan interest up to $2,500)

2. Calculate Taxable Income:
   - Start with AGI
   - Subtract either:
     a) Standard deduction (based on filing status)
     b) Itemized deductions (if itemizing and > standard deduction)

3. Calculate Tax Before Credits:
   - Apply %d tax brackets for filing status: %s
   - Calculate tax owed on taxable income

4. Apply Tax Credits:
   - Child Tax Credit (if applicable): $2,000 per qualifying child under 17
   - Other applicable credits

5. Calculate Final Tax Liability

**Important Considerations:**
- Use %d tax brackets and standard deduction amounts
- Phase-outs and income limits for deductions/credits
- FICA taxes (Social Security + Medicare) are separate from income tax
- This is an ESTIMATE for planning purposes

**Response Format (JSON):**
{
  "federal_tax": <tax liability in cents>,
  "breakdown": {
    "total_income": <in cents>,
    "agi": <in cents>,
    "taxable_income": <in cents>,
    "standard_deduction": <in cents>,
    "tax_before_credits": <in cents>,
    "child_tax_credit": <in cents>,
    "total_credits": <in cents>,
    "final_tax": <in cents>,
    "marginal_tax_rate": <percentage>,
    "effective_tax_rate": <percentage>
  },
  "assumptions": [
    "List any assumptions made (e.g., 'Assumed no other income sources', 'Used standard deduction')"
  ],
  "confidence": "high" or "medium" or "low"
}

Provide ONLY the JSON response, nothing else.`,
		profile.TaxYear,
		profile.FilingStatus,
		profile.Income.TotalIncome,
		profile.Income.W2Count,
		profile.Income.IRAContribution,
		profile.Deductions.StudentLoanInterest,
		profile.Deductions.Itemized,
		profile.Deductions.ItemizedTotal,
		profile.Dependents.Count,
		agesLabel(profile.Dependents.Ages),
		profile.Dependents.ClaimingChildTaxCredit,
		profile.TaxYear,
		profile.TaxYear,
		profile.FilingStatus,
		profile.TaxYear)
}

func stateTaxPrompt(profile *model.TaxProfile) string {
	return fmt.Sprintf(`You are a tax calculation expert with comprehensive knowledge of U.S. state income taxes for %d.

**User's Tax Profile:**
- State: %s
- Filing Status: %s
- Total Income: %s
- Federal AGI: %s (approximate)

**Your Task:**
Calculate the estimated state income tax liability for %s in %d.

**Important Notes:**
- Each state has its own tax brackets, deductions, and credits
- State tax often uses federal AGI as a starting point
- This is an ESTIMATE for planning purposes

**Response Format (JSON):**
{
  "state_tax": <tax liability in cents>,
  "state_tax_rate": <percentage if flat tax, or "progressive">,
  "notes": [
    "List any assumptions made"
  ],
  "confidence": "high" or "medium" or "low"
}

Provide ONLY the JSON response, nothing else.`,
		profile.TaxYear,
		profile.State,
		profile.FilingStatus,
		profile.Income.TotalIncome,
		profile.Income.TotalIncome,
		profile.State,
		profile.TaxYear)
}

func optimizationPrompt(profile *model.TaxProfile, calc *model.TaxCalculation) string {
	return fmt.Sprintf(`You are a tax planning expert helping users optimize their tax situation.

**User's Current Tax Situation:**
- Filing Status: %s
- Total Income: %s
- Current Federal Tax: %s
- Current State Tax: %s
- Effective Tax Rate: %.1f%%
- Marginal Tax Rate: %.1f%%
- IRA Contribution (current): %s
- Itemizing: %t
- Dependents: %d

**Your Task:**
Identify 3-5 actionable tax optimization strategies that could reduce their %d tax liability.

**Focus Areas:**
1. Retirement contributions (Traditional IRA, 401(k) if applicable)
2. Tax bracket management (are they close to a bracket threshold?)
3. Deduction strategies (bunching charitable donations, etc.)
4. Tax credits they might qualify for
5. Timing strategies (defer income, accelerate deductions)
6. Tax-advantaged accounts (HSA, 529, etc.)

**Guidelines:**
- Prioritize strategies with highest potential savings
- Consider effort level (prefer low-effort strategies)
- Include specific deadlines (Dec 31, Apr 15, etc.)
- Be realistic about savings (don't exaggerate)
- Focus on LEGAL tax reduction strategies only
- Consider their current situation (don't suggest IRA if already maxed)

**Response Format (JSON):**
{
  "strategies": [
    {
      "strategy_id": "ira_contribution",
      "title": "Maximize Traditional IRA Contribution",
      "description": "Why this helps and roughly how much it saves at their marginal rate",
      "potential_savings": <estimated tax savings in cents>,
      "effort_level": "low" or "medium" or "high",
      "deadline": "April 15, %d",
      "action_steps": ["Concrete step 1", "Concrete step 2"],
      "risks_considerations": ["Risk or caveat 1"],
      "confidence": "high" or "medium" or "low"
    }
  ],
  "total_potential_savings": <sum of all strategy savings in cents>,
  "reasoning": "Brief explanation of why these specific strategies were chosen based on the user's situation"
}

Provide ONLY the JSON response, nothing else.`,
		profile.FilingStatus,
		profile.Income.TotalIncome,
		calc.FederalTax,
		calc.StateTax,
		calc.EffectiveTaxRate,
		calc.MarginalTaxRate,
		profile.Income.IRAContribution,
		profile.Deductions.Itemized,
		profile.Dependents.Count,
		profile.TaxYear,
		profile.TaxYear+1)
}

func deductionFinderPrompt(profile *model.TaxProfile) string {
	state := profile.State
	if state == "" {
		state = "not provided"
	}

	return fmt.Sprintf(`You are a tax deduction expert helping users identify deductions and credits they may have missed.

**User's Current Tax Profile:**
- Filing Status: %s
- Total Income: %s
- State: %s
- Dependents: %d (ages: %s)
- Currently Itemizing: %t
- Student Loan Interest (claimed): %s

**What We Know They Have:**
- W-2 income: %d job(s)
- IRA contribution: %s

**Your Task:**
Identify common deductions and credits this person might qualify for but haven't mentioned.

**Common Deductions/Credits to Consider:**
- Charitable contributions
- Mortgage interest
- State and local taxes (SALT)
- Medical expenses (if > 7.5%% of AGI)
- Educator expenses (if teacher)
- Home office deduction (if self-employed)
- Child and dependent care credit
- Earned income tax credit (EITC)
- Education credits (American Opportunity, Lifetime Learning)
- Retirement savings contributions credit (Saver's Credit)
- Energy-efficient home improvement credits

**Guidelines:**
- Only suggest deductions that are LIKELY based on their profile
- Don't suggest deductions they've already claimed
- For each suggestion, include a follow-up question to confirm eligibility
- Estimate potential value conservatively
- Consider their income level (some credits phase out at high incomes)

**Response Format (JSON):**
{
  "missed_deductions": [
    {
      "deduction_name": "Charitable Contributions",
      "category": "itemized_deduction",
      "estimated_value": <potential tax savings in cents>,
      "likelihood": "high" or "medium" or "low",
      "why_suggested": "Why this person likely qualifies",
      "follow_up_question": "Did you make any charitable donations to qualified organizations in %d?",
      "requirements": ["Requirement 1", "Requirement 2"]
    }
  ],
  "total_potential_savings": <sum of all estimated savings in cents>,
  "follow_up_questions": ["Question 1", "Question 2"]
}

Provide ONLY the JSON response, nothing else.`,
		profile.FilingStatus,
		profile.Income.TotalIncome,
		state,
		profile.Dependents.Count,
		agesLabel(profile.Dependents.Ages),
		profile.Deductions.Itemized,
		profile.Deductions.StudentLoanInterest,
		profile.Income.W2Count,
		profile.Income.IRAContribution,
		profile.TaxYear)
}

func executiveSummaryPrompt(
	profile *model.TaxProfile,
	calc *model.TaxCalculation,
	optimization *model.OptimizationReport,
	deductions *model.DeductionFinderReport,
) string {
	return fmt.Sprintf(`You are a tax advisor creating an executive summary for a client.

**Client's Tax Situation:**
- Tax Year: %d
- Filing Status: %s
- Income: %s
- Estimated Federal Tax: %s
- Estimated State Tax: %s
- Total Tax: %s
- Effective Tax Rate: %.1f%%

**Analysis Results:**
- Identified %d optimization strategies
- Potential savings from strategies: %s
- Identified %d potentially missed deductions
- Potential savings from missed deductions: %s

**Your Task:**
Write a concise executive summary (2-3 paragraphs) that:
1. Summarizes their current tax situation
2. Highlights the most important findings
3. Emphasizes total potential savings
4. Encourages action on the recommendations

**Tone:**
- Professional but friendly
- Clear and non-technical language
- Encouraging and actionable
- Include specific dollar amounts

**Response Format (JSON):**
{
  "executive_summary": "Your 2-3 paragraph summary here...",
  "top_recommendations": [
    "Most impactful action item 1",
    "Most impactful action item 2",
    "Most impactful action item 3"
  ]
}

Provide ONLY the JSON response, nothing else.`,
		profile.TaxYear,
		profile.FilingStatus,
		profile.Income.TotalIncome,
		calc.FederalTax,
		calc.StateTax,
		calc.TotalTax,
		calc.EffectiveTaxRate,
		len(optimization.Strategies),
		optimization.TotalPotentialSavings,
		len(deductions.MissedDeductions),
		deductions.TotalPotentialSavings)
}
