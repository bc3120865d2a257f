package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	reviewPrior   string
	reviewCurrent string
	reviewOut     string
)

var reviewCmd = &cobra.Command{
	Use:    "review",
	Short:  "Deprecated rule-based review",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		rule := strings.Repeat("=", 60)
		fmt.Println(rule)
		fmt.Println("DEPRECATED: This rule-based review command is no longer supported.")
		fmt.Println()
		fmt.Println("The tax-copilot system has transitioned to a pure agentic approach.")
		fmt.Println()
		fmt.Println("To collect tax information, use:")
		fmt.Println("  tax-copilot precheck --user <user_id> --year <tax_year>")
		fmt.Println()
		fmt.Println("To view saved profiles, use:")
		fmt.Println("  tax-copilot profile --user <user_id> --year <tax_year>")
		fmt.Println(rule)
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewPrior, "prior", "", "path to prior-year TaxProfile JSON (ignored)")
	reviewCmd.Flags().StringVar(&reviewCurrent, "current", "", "path to current-year TaxProfile JSON (ignored)")
	reviewCmd.Flags().StringVar(&reviewOut, "out", "", "output directory (ignored)")
	rootCmd.AddCommand(reviewCmd)
}
