package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agenthands/tax-copilot/internal/core/advisory"
	"github.com/agenthands/tax-copilot/internal/storage"
)

var (
	analyzeUser        string
	analyzeProfileID   string
	analyzeInteractive bool
	analyzeOutput      string
	analyzeSave        bool
	analyzeProvider    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run tax analysis against a saved profile",
	Long: `Analyze a tax profile: estimate federal and state taxes, find
optimization strategies and potentially missed deductions, and produce
an advisory report.

Analyze the latest profile for a user:
  tax-copilot analyze --user john

Analyze a specific profile:
  tax-copilot analyze --profile-id john_2024

Interactive mode surfaces follow-up questions worth answering in the
next interview:
  tax-copilot analyze --user john --interactive`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "analyze the latest profile for this user ID")
	analyzeCmd.Flags().StringVar(&analyzeProfileID, "profile-id", "", "analyze a specific profile (e.g. john_2024)")
	analyzeCmd.Flags().BoolVar(&analyzeInteractive, "interactive", false, "show follow-up questions that could refine the analysis")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "markdown", "report format: markdown or json")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", true, "save the report under the storage directory")
	analyzeCmd.Flags().StringVar(&analyzeProvider, "llm-provider", "", "LLM provider override (anthropic, openai, gemini, ollama)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeOutput != "markdown" && analyzeOutput != "json" {
		return fmt.Errorf("unsupported output format %q (expected markdown or json)", analyzeOutput)
	}
	if analyzeUser == "" && analyzeProfileID == "" {
		return fmt.Errorf("either --user or --profile-id is required")
	}

	ctx := cmd.Context()
	co, err := buildCopilot(ctx, analyzeProvider)
	if err != nil {
		return err
	}

	profile, err := co.ResolveProfile(analyzeUser, analyzeProfileID, 0)
	if err != nil {
		if errors.Is(err, storage.ErrProfileNotFound) {
			return fmt.Errorf("no tax profile found; create one first with: tax-copilot precheck --user %s --year <year>", analyzeUser)
		}
		return err
	}

	fmt.Println("\n=== Analyzing Tax Profile ===")
	fmt.Printf("User: %s\n", profile.UserID)
	fmt.Printf("Tax Year: %d\n", profile.TaxYear)
	fmt.Printf("Income: %s\n", profile.Income.TotalIncome)
	fmt.Printf("Filing Status: %s\n\n", profile.FilingStatus)

	report, path, err := co.Analyze(ctx, profile, analyzeInteractive, analyzeSave)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Printf("\nReport saved to: %s\n", path)
	}

	if analyzeOutput == "json" {
		out, err := advisory.ToJSON(report)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	fmt.Println("\n" + advisory.ToMarkdown(report, profile))
	return nil
}
