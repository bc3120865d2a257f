package advisory

import (
	"context"
	"fmt"
	"sort"

	"github.com/agenthands/tax-copilot/internal/core/common"
	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/llm"
	"github.com/agenthands/tax-copilot/internal/logging"
)

type deductionReply struct {
	MissedDeductions []model.MissedDeduction `json:"missed_deductions"`
}

// DeductionFinder surfaces deductions and credits the user likely
// qualifies for but never mentioned during the interview.
type DeductionFinder struct {
	LLM llm.Client
	log logging.Logger
}

func NewDeductionFinder(client llm.Client, log logging.Logger) *DeductionFinder {
	if log == nil {
		log = logging.NewNop()
	}
	return &DeductionFinder{LLM: client, log: log}
}

// FindDeductions degrades to an empty report on failure so a broken LLM
// call never sinks the whole analysis.
func (d *DeductionFinder) FindDeductions(ctx context.Context, profile *model.TaxProfile) *model.DeductionFinderReport {
	report, err := d.findDeductions(ctx, profile)
	if err != nil {
		d.log.Warn("deduction discovery failed", map[string]interface{}{
			"error": err.Error(),
		})
		return &model.DeductionFinderReport{
			MissedDeductions:  []model.MissedDeduction{},
			FollowUpQuestions: []string{},
		}
	}
	return report
}

func (d *DeductionFinder) findDeductions(ctx context.Context, profile *model.TaxProfile) (*model.DeductionFinderReport, error) {
	resp, err := d.LLM.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Identify potentially missed deductions and credits for the profile provided."},
		},
		SystemPrompt: deductionFinderPrompt(profile),
		Temperature:  0.5,
		MaxTokens:    3000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate missed deductions: %w", err)
	}

	reply, err := common.ParseJSON[deductionReply](resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse missed deductions: %w", err)
	}

	deductions := reply.MissedDeductions
	for i := range deductions {
		if deductions[i].Likelihood == "" {
			deductions[i].Likelihood = model.LevelMedium
		}
	}
	// Rank by expected value: estimated dollars weighted by likelihood.
	sort.SliceStable(deductions, func(i, j int) bool {
		return expectedValue(deductions[i]) > expectedValue(deductions[j])
	})

	var total model.Money
	followUps := make([]string, 0, len(deductions))
	for _, ded := range deductions {
		total = total.Add(ded.EstimatedValue)
		if ded.FollowUpQuestion != "" {
			followUps = append(followUps, ded.FollowUpQuestion)
		}
	}

	d.log.Debug("missed deductions identified", map[string]interface{}{
		"count":             len(deductions),
		"potential_savings": total.String(),
	})

	return &model.DeductionFinderReport{
		MissedDeductions:      deductions,
		TotalPotentialSavings: total,
		FollowUpQuestions:     followUps,
	}, nil
}

var likelihoodWeight = map[string]float64{
	model.LevelHigh:   1.0,
	model.LevelMedium: 0.6,
	model.LevelLow:    0.3,
}

func expectedValue(d model.MissedDeduction) float64 {
	weight, ok := likelihoodWeight[d.Likelihood]
	if !ok {
		weight = 0.5
	}
	return d.EstimatedValue.Dollars() * weight
}
