package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/jpalmerr/longrun/config"
	"github.com/jpalmerr/longrun/internal/app"
	"github.com/spf13/cobra"
)

// errUnfinished is returned when at least one job did not succeed, so the
// process exits non-zero after the summary is printed.
var errUnfinished = errors.New("not every operation succeeded")

// runCmd drives every job of a configuration file.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive every configured operation to completion",
	Long: `Start (or resume) every document and batch job of a configuration file
and poll them until they finish.

The run will:
  - Load configuration from the specified YAML file
  - Start the jobs, at most "concurrency" at a time
  - Serve the status page and API when server.enabled is set
  - Print a summary table when every job has finished

The run stops early when interrupted (Ctrl+C) or on SIGTERM; unfinished
jobs are reported as interrupted.

Example:
  longrun run -c config.yaml
  longrun run -c config.yaml --output ./results`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	runCmd.Flags().StringP("output", "o", "", "directory for the results of succeeded operations")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	outputDir, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"service", cfg.Service.Type,
		"documents", len(cfg.Documents),
		"batches", len(cfg.Batches),
	)

	a, err := app.NewApp(cfg, app.Options{
		Logger:    logger,
		OutputDir: outputDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := a.Run(ctx)
	if err != nil {
		return err
	}

	if err := printSummary(cmd.OutOrStdout(), summary); err != nil {
		return err
	}

	if !summary.OK() {
		return errUnfinished
	}
	return nil
}

func printSummary(w io.Writer, s *app.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tOUTCOME\tPOLLS\tELAPSED\tERROR")
	for _, r := range s.Records {
		msg := ""
		if r.Error != nil {
			msg = *r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%dms\t%s\n", r.Name, r.Outcome, r.Polls, r.ElapsedMs, msg)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d succeeded, %d failed, %d unfinished\n", s.Succeeded, s.Failed, s.Unfinished)
	return err
}
