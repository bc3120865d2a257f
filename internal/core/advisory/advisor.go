package advisory

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/tax-copilot/internal/core/common"
	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/llm"
	"github.com/agenthands/tax-copilot/internal/logging"
	"github.com/agenthands/tax-copilot/internal/storage"
)

type summaryReply struct {
	ExecutiveSummary   string   `json:"executive_summary"`
	TopRecommendations []string `json:"top_recommendations"`
}

// Advisor orchestrates the full analysis of a tax profile: liability
// calculation, optimization strategies, missed deductions, and an
// executive summary tying them together.
type Advisor struct {
	llm        llm.Client
	calculator *TaxCalculator
	optimizer  *Optimizer
	deductions *DeductionFinder
	log        logging.Logger
	out        io.Writer
}

func NewAdvisor(client llm.Client, log logging.Logger) *Advisor {
	if log == nil {
		log = logging.NewNop()
	}
	return &Advisor{
		llm:        client,
		calculator: NewTaxCalculator(client, log),
		optimizer:  NewOptimizer(client, log),
		deductions: NewDeductionFinder(client, log),
		log:        log,
		out:        os.Stdout,
	}
}

// SetOutput redirects progress output, which otherwise goes to stdout.
func (a *Advisor) SetOutput(w io.Writer) {
	a.out = w
}

// AnalyzeProfile runs the complete advisory pipeline against a profile.
// Sub-agents degrade to fallbacks individually, so the only error this
// returns is a dead context.
func (a *Advisor) AnalyzeProfile(ctx context.Context, profile *model.TaxProfile, interactive bool) (*model.AdvisoryReport, error) {
	start := time.Now()

	fmt.Fprintf(a.out, "Calculating %d taxes...\n", profile.TaxYear)
	calc := a.calculator.CalculateTaxes(ctx, profile)
	fmt.Fprintf(a.out, "  Federal tax: %s\n", calc.FederalTax)
	fmt.Fprintf(a.out, "  State tax: %s\n", calc.StateTax)
	fmt.Fprintf(a.out, "  Total tax: %s\n", calc.TotalTax)
	fmt.Fprintf(a.out, "  Effective rate: %.1f%%\n\n", calc.EffectiveTaxRate)

	fmt.Fprintln(a.out, "Analyzing optimization strategies and potential deductions...")
	var optimization *model.OptimizationReport
	var missed *model.DeductionFinderReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		optimization = a.optimizer.FindOptimizations(gctx, profile, calc)
		return nil
	})
	g.Go(func() error {
		missed = a.deductions.FindDeductions(gctx, profile)
		return nil
	})
	_ = g.Wait()
	fmt.Fprintf(a.out, "  Found %d optimization strategies\n", len(optimization.Strategies))
	fmt.Fprintf(a.out, "  Found %d potential missed deductions\n\n", len(missed.MissedDeductions))

	// Every stage falls back quietly when the context dies, so check
	// once before presenting degraded results as a real report.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	fmt.Fprintln(a.out, "Generating executive summary...")
	summary, recommendations := a.executiveSummary(ctx, profile, calc, optimization, missed)
	fmt.Fprintln(a.out)

	fmt.Fprintln(a.out, "Generating advisory report...")
	report := &model.AdvisoryReport{
		ReportID:    storage.NewReportID(time.Now()),
		ProfileID:   profile.ProfileID(),
		UserID:      profile.UserID,
		TaxYear:     profile.TaxYear,
		GeneratedAt: time.Now().UTC(),

		TaxCalculation:        *calc,
		OptimizationReport:    *optimization,
		DeductionFinderReport: *missed,

		ExecutiveSummary:   summary,
		TopRecommendations: recommendations,

		LLMProvider:              a.llm.ModelName(),
		TotalAnalysisTimeSeconds: time.Since(start).Seconds(),
	}
	fmt.Fprintf(a.out, "Analysis complete in %.1fs\n\n", report.TotalAnalysisTimeSeconds)

	if interactive && len(missed.FollowUpQuestions) > 0 {
		a.printFollowUps(missed.FollowUpQuestions)
	}

	a.log.Info("advisory analysis complete", map[string]interface{}{
		"report_id":         report.ReportID,
		"profile_id":        report.ProfileID,
		"total_tax":         calc.TotalTax.String(),
		"potential_savings": report.PotentialSavings().String(),
		"elapsed_seconds":   report.TotalAnalysisTimeSeconds,
	})
	return report, nil
}

// executiveSummary asks the LLM to tie the findings together; a failed
// call falls back to a deterministic summary built from the numbers.
func (a *Advisor) executiveSummary(
	ctx context.Context,
	profile *model.TaxProfile,
	calc *model.TaxCalculation,
	optimization *model.OptimizationReport,
	missed *model.DeductionFinderReport,
) (string, []string) {
	resp, err := a.llm.Generate(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "Generate the executive summary for this tax analysis."},
		},
		SystemPrompt: executiveSummaryPrompt(profile, calc, optimization, missed),
		Schema:       ExecutiveSummarySchema,
		Temperature:  0.7,
		MaxTokens:    1500,
	})
	if err == nil {
		reply, parseErr := common.ParseValidatedJSON[summaryReply](resp.Content, ExecutiveSummarySchema)
		if parseErr == nil && reply.ExecutiveSummary != "" {
			return reply.ExecutiveSummary, reply.TopRecommendations
		}
		err = parseErr
		if err == nil {
			err = fmt.Errorf("model returned an empty summary")
		}
	}

	fmt.Fprintf(a.out, "  Warning: executive summary generation failed: %v\n", err)
	a.log.Warn("executive summary fell back to deterministic text", map[string]interface{}{
		"error": fmt.Sprint(err),
	})
	return buildExecutiveSummary(profile, calc, optimization, missed),
		buildTopRecommendations(optimization, missed)
}

func (a *Advisor) printFollowUps(questions []string) {
	fmt.Fprintf(a.out, "\n=== Interactive Mode ===\n\n")
	fmt.Fprintln(a.out, "We have some questions to better assess your deductions:")
	fmt.Fprintln(a.out)
	for i, q := range questions {
		if i == 3 {
			break
		}
		fmt.Fprintf(a.out, "%d. %s\n", i+1, q)
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Answer these in your next interview to refine the analysis.")
	fmt.Fprintln(a.out)
}
