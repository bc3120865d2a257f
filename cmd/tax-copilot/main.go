// Command tax-copilot collects tax information through an LLM-driven
// interview and turns the resulting profile into an advisory report.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/tax-copilot/internal/config"
	"github.com/agenthands/tax-copilot/internal/core"
	"github.com/agenthands/tax-copilot/internal/logging"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tax-copilot",
	Short: "Tax interview and advisory copilot",
	Long: `tax-copilot collects your tax information through a dynamic
interview and produces an advisory report: estimated liability,
optimization strategies, and potentially missed deductions.

Typical flow:
  tax-copilot precheck --user john --year 2024    collect information
  tax-copilot analyze --user john --save          generate the report
  tax-copilot reports                             browse saved reports

Estimates are for planning only, not professional tax advice.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; the config file and provider env
		// variables cover the same ground.
		_ = godotenv.Load()

		path := configPath
		if path == "" {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}
		var err error
		cfg, err = config.LoadOrDefault(path)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default ~/.tax_copilot/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// buildCopilot wires storage and the LLM client, honoring a per-command
// provider override.
func buildCopilot(ctx context.Context, providerOverride string) (*core.Copilot, error) {
	if providerOverride != "" {
		cfg.LLM.Provider = providerOverride
	}
	return core.New(ctx, cfg, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
