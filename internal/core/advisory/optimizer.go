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

// Strategies projected to save less than this are noise and get dropped.
const minStrategySavingsCents = 10_000

type optimizationReply struct {
	Strategies []model.OptimizationStrategy `json:"strategies"`
	Reasoning  string                       `json:"reasoning"`
}

// Optimizer asks the LLM for concrete strategies that reduce the
// calculated liability, with savings estimates and action steps.
type Optimizer struct {
	LLM llm.Client
	log logging.Logger
}

func NewOptimizer(client llm.Client, log logging.Logger) *Optimizer {
	if log == nil {
		log = logging.NewNop()
	}
	return &Optimizer{LLM: client, log: log}
}

// FindOptimizations never fails the analysis: if the LLM call or parse
// breaks, it returns an empty report that records why.
func (o *Optimizer) FindOptimizations(ctx context.Context, profile *model.TaxProfile, calc *model.TaxCalculation) *model.OptimizationReport {
	report, err := o.findOptimizations(ctx, profile, calc)
	if err != nil {
		o.log.Warn("optimization analysis failed", map[string]interface{}{
			"error": err.Error(),
		})
		return &model.OptimizationReport{
			Strategies: []model.OptimizationStrategy{},
			Reasoning:  fmt.Sprintf("Analysis failed: %v", err),
		}
	}
	return report
}

func (o *Optimizer) findOptimizations(ctx context.Context, profile *model.TaxProfile, calc *model.TaxCalculation) (*model.OptimizationReport, error) {
	resp, err := o.LLM.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Identify tax optimization strategies for the profile provided."},
		},
		SystemPrompt: optimizationPrompt(profile, calc),
		Temperature:  0.7,
		MaxTokens:    3000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate optimization strategies: %w", err)
	}

	reply, err := common.ParseJSON[optimizationReply](resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse optimization strategies: %w", err)
	}

	strategies := make([]model.OptimizationStrategy, 0, len(reply.Strategies))
	for _, s := range reply.Strategies {
		if s.PotentialSavings.Cents < minStrategySavingsCents {
			continue
		}
		if s.StrategyID == "" {
			s.StrategyID = "unknown"
		}
		if s.EffortLevel == "" {
			s.EffortLevel = model.LevelMedium
		}
		if s.Confidence == "" {
			s.Confidence = model.LevelMedium
		}
		strategies = append(strategies, s)
	}
	sort.SliceStable(strategies, func(i, j int) bool {
		return strategies[i].PotentialSavings.Cents > strategies[j].PotentialSavings.Cents
	})

	var total model.Money
	for _, s := range strategies {
		total = total.Add(s.PotentialSavings)
	}

	o.log.Debug("optimization strategies identified", map[string]interface{}{
		"count":             len(strategies),
		"potential_savings": total.String(),
	})

	return &model.OptimizationReport{
		Strategies:            strategies,
		TotalPotentialSavings: total,
		Reasoning:             reply.Reasoning,
	}, nil
}
