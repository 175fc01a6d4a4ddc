package main

import (
	"fmt"

	"github.com/jpalmerr/longrun/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting any operation.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a longrun configuration file without contacting the service.

This command parses the YAML, expands environment variables, validates all
fields and expands batches into jobs. It's useful for CI/CD pipelines or
pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  longrun validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	jobs, err := config.BuildJobs(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	direct := len(cfg.Documents)
	batched := len(jobs) - direct

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Service:       %s\n", cfg.Service.Type)
	fmt.Fprintf(out, "  Strategy:      %s\n", cfg.Polling.Strategy)
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.Polling.Interval.Duration())
	fmt.Fprintf(out, "  Concurrency:   %d\n", cfg.Concurrency)
	fmt.Fprintf(out, "  Jobs:          %d direct + %d from batches = %d total\n",
		direct, batched, len(jobs))

	return nil
}
