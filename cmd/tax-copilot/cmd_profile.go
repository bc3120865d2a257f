package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/storage"
)

var (
	profileUser   string
	profileYear   int
	profileFormat string
	profileOut    string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect or export a saved tax profile",
	Long: `Show a saved tax profile, or export it as JSON.

Summary view:
  tax-copilot profile --user john --year 2024

Export to a file:
  tax-copilot profile --user john --year 2024 --format json --out profile.json`,
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().StringVar(&profileUser, "user", "", "user ID (required)")
	profileCmd.Flags().IntVar(&profileYear, "year", 0, "tax year (required)")
	profileCmd.Flags().StringVar(&profileFormat, "format", "summary", "output format: summary or json")
	profileCmd.Flags().StringVar(&profileOut, "out", "", "write JSON output to this file instead of stdout")
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	if profileUser == "" || profileYear == 0 {
		return fmt.Errorf("--user and --year are required")
	}
	if profileFormat != "summary" && profileFormat != "json" {
		return fmt.Errorf("unsupported format %q (expected summary or json)", profileFormat)
	}

	dir, err := storage.Dir(cfg.Storage.Dir)
	if err != nil {
		return err
	}
	store, err := storage.NewProfileStore(dir, logger)
	if err != nil {
		return err
	}

	profile, err := store.Load(profileUser, profileYear)
	if err != nil {
		if errors.Is(err, storage.ErrProfileNotFound) {
			return fmt.Errorf("profile not found for user %q and year %d; create it first with: tax-copilot precheck --user %s --year %d",
				profileUser, profileYear, profileUser, profileYear)
		}
		return err
	}

	if profileFormat == "json" {
		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode profile: %w", err)
		}
		if profileOut != "" {
			if err := os.WriteFile(profileOut, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", profileOut, err)
			}
			fmt.Printf("Profile exported to: %s\n", profileOut)
			return nil
		}
		fmt.Println(string(data))
		return nil
	}

	printProfileSummary(profile)
	return nil
}

func printProfileSummary(profile *model.TaxProfile) {
	fmt.Printf("\n=== Tax Profile: %s ===\n\n", profile.ProfileID())
	fmt.Printf("Filing Status: %s\n", profile.FilingStatus)
	if profile.State != "" {
		fmt.Printf("State: %s\n", profile.State)
	}

	fmt.Println("\nIncome:")
	fmt.Printf("  Total Income: %s\n", profile.Income.TotalIncome)
	fmt.Printf("  W-2 Forms: %d\n", profile.Income.W2Count)
	if !profile.Income.IRAContribution.IsZero() {
		fmt.Printf("  IRA Contribution: %s\n", profile.Income.IRAContribution)
	}

	fmt.Println("\nDeductions:")
	fmt.Printf("  Student Loan Interest: %s\n", profile.Deductions.StudentLoanInterest)
	fmt.Printf("  Itemized: %t\n", profile.Deductions.Itemized)
	if profile.Deductions.Itemized {
		fmt.Printf("  Itemized Total: %s\n", profile.Deductions.ItemizedTotal)
	}

	fmt.Println("\nDependents:")
	fmt.Printf("  Count: %d\n", profile.Dependents.Count)
	if len(profile.Dependents.Ages) > 0 {
		ages := make([]string, len(profile.Dependents.Ages))
		for i, age := range profile.Dependents.Ages {
			ages[i] = fmt.Sprintf("%d", age)
		}
		fmt.Printf("  Ages: %s\n", strings.Join(ages, ", "))
		fmt.Printf("  Claiming Child Tax Credit: %t\n", profile.Dependents.ClaimingChildTaxCredit)
	}

	fmt.Println("\nMetadata:")
	fmt.Printf("  Collected via: %s\n", profile.CollectedVia)
	if profile.SessionID != "" {
		fmt.Printf("  Session ID: %s\n", profile.SessionID)
	}
	fmt.Printf("  Created: %s\n", profile.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Updated: %s\n", profile.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(profile.ConfidenceScores) > 0 {
		fmt.Println("\nConfidence Scores:")
		fields := make([]string, 0, len(profile.ConfidenceScores))
		for field := range profile.ConfidenceScores {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Printf("  %s: %.2f\n", field, profile.ConfidenceScores[field])
		}
	}
	fmt.Println()
}
