package main

import (
	"github.com/spf13/cobra"
)

// statusCmd checks or resumes an analyze operation started elsewhere.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check an analyze operation by its operation URL",
	Long: `Check the status of an analyze operation from its Operation-Location
URL, for example one printed by "longrun analyze --no-wait".

By default one status check is made and the status is printed. With --wait
the operation is polled until it finishes and the result is printed.

Example:
  longrun status --operation "$OPERATION_URL"
  longrun status --operation "$OPERATION_URL" --wait`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	addServiceFlags(statusCmd)
	addPollFlags(statusCmd)
	statusCmd.Flags().String("operation", "", "operation URL (required)")
	statusCmd.Flags().Bool("wait", false, "poll until the operation finishes")
	_ = statusCmd.MarkFlagRequired("operation")
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	operation, _ := cmd.Flags().GetString("operation")
	wait, _ := cmd.Flags().GetBool("wait")

	// the operation URL is absolute, so any endpoint will do
	if flagOrEnv(cmd, "endpoint", "DOCINTEL_ENDPOINT") == "" {
		_ = cmd.Flags().Set("endpoint", operation)
	}

	client, err := newDocintelClient(cmd, logger, "endpoint", "key", "DOCINTEL_ENDPOINT", "DOCINTEL_KEY")
	if err != nil {
		return err
	}
	defer client.Close()

	p, err := newPoller(cmd, "analyze", client.Analyze())
	if err != nil {
		return err
	}

	h, err := p.Resume(operation)
	if err != nil {
		return err
	}

	ctx, done := signalContext(logger)
	defer done()

	if !wait {
		h, err = p.Poll(ctx, h)
		if err != nil {
			return err
		}
		return printHandle(cmd.OutOrStdout(), h)
	}

	result, err := await(ctx, logger, p, h)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), result)
}
