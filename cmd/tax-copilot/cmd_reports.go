package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agenthands/tax-copilot/internal/core/advisory"
	"github.com/agenthands/tax-copilot/internal/core/model"
	"github.com/agenthands/tax-copilot/internal/storage"
)

var (
	reportsUser   string
	reportsID     string
	reportsFormat string
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List saved advisory reports or show one",
	Long: `List saved advisory reports, or render a specific report.

List all reports:
  tax-copilot reports

List reports for one user:
  tax-copilot reports --user john

Show a report:
  tax-copilot reports --report-id rpt_20240115_143052_04217 --format markdown`,
	RunE: runReports,
}

func init() {
	reportsCmd.Flags().StringVar(&reportsUser, "user", "", "filter reports by user ID")
	reportsCmd.Flags().StringVar(&reportsID, "report-id", "", "show a single report by ID")
	reportsCmd.Flags().StringVar(&reportsFormat, "format", "summary", "report format: summary, markdown, or json")
	rootCmd.AddCommand(reportsCmd)
}

func runReports(cmd *cobra.Command, args []string) error {
	switch reportsFormat {
	case "summary", "markdown", "json":
	default:
		return fmt.Errorf("unsupported format %q (expected summary, markdown, or json)", reportsFormat)
	}

	dir, err := storage.Dir(cfg.Storage.Dir)
	if err != nil {
		return err
	}
	store, err := storage.NewReportStore(dir, logger)
	if err != nil {
		return err
	}

	if reportsID != "" {
		return showReport(store, dir, reportsID)
	}
	return listReports(store)
}

func showReport(store *storage.ReportStore, baseDir, reportID string) error {
	report, err := store.Load(reportID)
	if err != nil {
		if errors.Is(err, storage.ErrReportNotFound) {
			return fmt.Errorf("report %s not found; list saved reports with: tax-copilot reports", reportID)
		}
		return err
	}

	switch reportsFormat {
	case "json":
		out, err := advisory.ToJSON(report)
		if err != nil {
			return err
		}
		fmt.Println(out)

	case "markdown":
		profile := profileForReport(baseDir, report)
		fmt.Println(advisory.ToMarkdown(report, profile))

	default:
		fmt.Println("\n=== Tax Advisory Report ===")
		fmt.Printf("Report ID: %s\n", report.ReportID)
		fmt.Printf("User: %s\n", report.UserID)
		fmt.Printf("Tax Year: %d\n", report.TaxYear)
		fmt.Printf("Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Total Tax: %s\n", report.TaxCalculation.TotalTax)
		fmt.Printf("Effective Rate: %.1f%%\n", report.TaxCalculation.EffectiveTaxRate)
		fmt.Printf("Potential Savings: %s\n", report.PotentialSavings())
		fmt.Printf("Strategies: %d\n", len(report.OptimizationReport.Strategies))
		fmt.Printf("Missed Deductions: %d\n", len(report.DeductionFinderReport.MissedDeductions))
		fmt.Println()
	}
	return nil
}

// profileForReport loads the profile a report was generated from, falling
// back to a minimal stand-in so the report still renders when the profile
// file has since been deleted.
func profileForReport(baseDir string, report *model.AdvisoryReport) *model.TaxProfile {
	profiles, err := storage.NewProfileStore(baseDir, logger)
	if err == nil {
		if profile, err := profiles.LoadByID(report.ProfileID); err == nil {
			return profile
		}
	}
	return &model.TaxProfile{
		UserID:       report.UserID,
		TaxYear:      report.TaxYear,
		FilingStatus: model.FilingUnknown,
	}
}

func listReports(store *storage.ReportStore) error {
	summaries, err := store.List(reportsUser)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		var filter string
		if reportsUser != "" {
			filter = fmt.Sprintf(" for user '%s'", reportsUser)
		}
		fmt.Printf("No reports found%s.\n", filter)
		return nil
	}

	fmt.Println("\n=== Saved Reports ===")
	fmt.Println()
	for _, s := range summaries {
		fmt.Printf("Report ID: %s\n", s.ReportID)
		fmt.Printf("  User: %s\n", s.UserID)
		fmt.Printf("  Tax Year: %d\n", s.TaxYear)
		fmt.Printf("  Generated: %s\n", s.GeneratedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Total Tax: %s\n", s.TotalTax)
		fmt.Printf("  Potential Savings: %s\n", s.PotentialSavings)
		fmt.Printf("  Strategies: %d, Missed Deductions: %d\n", s.Strategies, s.MissedDeductions)
		fmt.Println()
	}
	return nil
}
