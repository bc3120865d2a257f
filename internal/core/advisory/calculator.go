package advisory

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/tax-copilot/internal/core/common"
	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/llm"
	"github.com/agenthands/tax-copilot/internal/logging"
)

// States with no personal income tax; skipped without an LLM call.
var noIncomeTaxStates = map[string]bool{
	"AK": true, "FL": true, "NV": true, "NH": true, "SD": true,
	"TN": true, "TX": true, "WA": true, "WY": true,
}

type federalTaxReply struct {
	FederalTax  model.Money            `json:"federal_tax"`
	Breakdown   map[string]interface{} `json:"breakdown"`
	Assumptions []string               `json:"assumptions"`
	Confidence  string                 `json:"confidence"`
}

type stateTaxReply struct {
	StateTax     model.Money `json:"state_tax"`
	StateTaxRate interface{} `json:"state_tax_rate,omitempty"`
	Notes        []string    `json:"notes"`
	Confidence   string      `json:"confidence"`
}

func (r *stateTaxReply) breakdown() map[string]interface{} {
	section := map[string]interface{}{}
	if r.StateTaxRate != nil {
		section["state_tax_rate"] = r.StateTaxRate
	}
	if len(r.Notes) > 0 {
		section["notes"] = r.Notes
	}
	return section
}

// TaxCalculator estimates federal and state liability through the LLM's
// knowledge of the tax code; there are no hardcoded brackets or rates.
type TaxCalculator struct {
	LLM llm.Client
	log logging.Logger
}

func NewTaxCalculator(client llm.Client, log logging.Logger) *TaxCalculator {
	if log == nil {
		log = logging.NewNop()
	}
	return &TaxCalculator{LLM: client, log: log}
}

// CalculateTaxes runs the federal and state estimates concurrently and
// merges them. Either estimate failing degrades to its fallback rather
// than failing the calculation.
func (c *TaxCalculator) CalculateTaxes(ctx context.Context, profile *model.TaxProfile) *model.TaxCalculation {
	var federal *federalTaxReply
	var state *stateTaxReply

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reply, err := c.calculateFederal(gctx, profile)
		if err != nil {
			c.log.Warn("federal tax calculation failed, using fallback", map[string]interface{}{
				"error": err.Error(),
			})
			reply = fallbackFederalEstimate(profile)
		}
		federal = reply
		return nil
	})
	g.Go(func() error {
		reply, err := c.calculateState(gctx, profile)
		if err != nil {
			c.log.Warn("state tax calculation failed, using fallback", map[string]interface{}{
				"state": profile.State,
				"error": err.Error(),
			})
			reply = fallbackStateEstimate()
		}
		state = reply
		return nil
	})
	// Both branches degrade internally, so Wait never returns an error.
	_ = g.Wait()

	totalTax := federal.FederalTax.Add(state.StateTax)

	return &model.TaxCalculation{
		FederalTax:       federal.FederalTax,
		StateTax:         state.StateTax,
		TotalTax:         totalTax,
		EffectiveTaxRate: breakdownRate(federal.Breakdown, "effective_tax_rate"),
		MarginalTaxRate:  breakdownRate(federal.Breakdown, "marginal_tax_rate"),
		// No withholding info is collected, so the whole liability reads
		// as owed.
		RefundOrOwed: model.FromCents(-totalTax.Cents),
		Breakdown: map[string]interface{}{
			"federal": federal.Breakdown,
			"state":   state.breakdown(),
		},
		Confidence:  minConfidence(federal.Confidence, state.Confidence),
		Assumptions: append(append([]string{}, federal.Assumptions...), state.Notes...),
	}
}

func (c *TaxCalculator) calculateFederal(ctx context.Context, profile *model.TaxProfile) (*federalTaxReply, error) {
	resp, err := c.LLM.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Calculate the federal income tax based on the profile provided."},
		},
		SystemPrompt: federalTaxPrompt(profile),
		Temperature:  0.2,
		MaxTokens:    2000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate federal tax estimate: %w", err)
	}

	reply, err := common.ParseJSON[federalTaxReply](resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse federal tax estimate: %w", err)
	}

	if reply.FederalTax.Cents < 0 {
		reply.FederalTax = model.Money{}
		reply.Assumptions = append(reply.Assumptions, "Federal tax set to $0 (was negative)")
	}
	if reply.Confidence == "" {
		reply.Confidence = model.LevelMedium
	}
	if reply.Breakdown == nil {
		reply.Breakdown = map[string]interface{}{}
	}
	return &reply, nil
}

func (c *TaxCalculator) calculateState(ctx context.Context, profile *model.TaxProfile) (*stateTaxReply, error) {
	if profile.State == "" {
		return &stateTaxReply{
			Confidence: model.LevelLow,
			Notes:      []string{"State not provided, cannot calculate state tax"},
		}, nil
	}
	if noIncomeTaxStates[profile.State] {
		return &stateTaxReply{
			Confidence: model.LevelHigh,
			Notes:      []string{fmt.Sprintf("%s has no state income tax", profile.State)},
		}, nil
	}

	resp, err := c.LLM.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Calculate the state income tax based on the profile provided."},
		},
		SystemPrompt: stateTaxPrompt(profile),
		Temperature:  0.2,
		MaxTokens:    1500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate state tax estimate: %w", err)
	}

	reply, err := common.ParseJSON[stateTaxReply](resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse state tax estimate: %w", err)
	}

	if reply.StateTax.Cents < 0 {
		reply.StateTax = model.Money{}
		reply.Notes = append(reply.Notes, "State tax set to $0 (was negative)")
	}
	if reply.Confidence == "" {
		reply.Confidence = model.LevelMedium
	}
	return &reply, nil
}

// fallbackFederalEstimate is the planning-grade estimate used when the
// LLM is unavailable: a flat 15% effective rate.
func fallbackFederalEstimate(profile *model.TaxProfile) *federalTaxReply {
	income := profile.Income.TotalIncome
	return &federalTaxReply{
		FederalTax: model.FromCents(income.Cents * 15 / 100),
		Breakdown: map[string]interface{}{
			"total_income":       income.Cents,
			"effective_tax_rate": 15.0,
			"marginal_tax_rate":  22.0,
		},
		Assumptions: []string{
			"Fallback calculation used (LLM unavailable)",
			"Used 15% effective tax rate estimate",
		},
		Confidence: model.LevelLow,
	}
}

func fallbackStateEstimate() *stateTaxReply {
	return &stateTaxReply{
		Confidence: model.LevelLow,
		Notes: []string{
			"Fallback calculation used (LLM unavailable)",
			"State tax set to $0",
		},
	}
}

func breakdownRate(breakdown map[string]interface{}, key string) float64 {
	if v, ok := breakdown[key].(float64); ok {
		return v
	}
	return 0
}

var confidenceRank = map[string]int{
	model.LevelHigh:   3,
	model.LevelMedium: 2,
	model.LevelLow:    1,
}

// minConfidence returns the lower of two confidence levels; unknown
// values count as medium.
func minConfidence(a, b string) string {
	rankA, ok := confidenceRank[a]
	if !ok {
		rankA = 2
	}
	rankB, ok := confidenceRank[b]
	if !ok {
		rankB = 2
	}
	if rankB < rankA {
		rankA = rankB
	}
	switch rankA {
	case 3:
		return model.LevelHigh
	case 1:
		return model.LevelLow
	default:
		return model.LevelMedium
	}
}
