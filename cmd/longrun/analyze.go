package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jpalmerr/longrun/remote/docintel"
	"github.com/spf13/cobra"
)

// analyzeCmd analyzes one document and prints the result.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one document with Document Intelligence",
	Long: `Submit one document to Azure AI Document Intelligence and wait for the
analysis to finish. The analyze result is printed as JSON.

Exactly one of --file and --url is required.

Example:
  longrun analyze --file receipt.pdf --model prebuilt-receipt
  longrun analyze --url https://example.com/invoice.pdf --features keyValuePairs
  longrun analyze --file scan.pdf --no-wait`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addServiceFlags(analyzeCmd)
	addPollFlags(analyzeCmd)

	analyzeCmd.Flags().String("model", "prebuilt-layout", "model id")
	analyzeCmd.Flags().String("file", "", "local document to analyze")
	analyzeCmd.Flags().String("url", "", "publicly reachable document to analyze")
	analyzeCmd.Flags().String("pages", "", "page range, e.g. 1-3,5")
	analyzeCmd.Flags().String("locale", "", "locale hint, e.g. en-US")
	analyzeCmd.Flags().StringSlice("features", nil, "optional analysis features")
	analyzeCmd.Flags().String("format", "", "output content format (text, markdown)")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "url")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	req, err := analyzeRequest(cmd)
	if err != nil {
		return err
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

	ctx, done := signalContext(logger)
	defer done()

	h, err := p.Start(ctx, req)
	if err != nil {
		return err
	}
	logger.Info("analysis started", "id", h.ID(), "model", req.ModelID)

	if noWait, _ := cmd.Flags().GetBool("no-wait"); noWait {
		return printHandle(cmd.OutOrStdout(), h)
	}

	result, err := await(ctx, logger, p, h)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), result)
}

func analyzeRequest(cmd *cobra.Command) (docintel.AnalyzeRequest, error) {
	model, _ := cmd.Flags().GetString("model")
	file, _ := cmd.Flags().GetString("file")
	docURL, _ := cmd.Flags().GetString("url")
	pages, _ := cmd.Flags().GetString("pages")
	locale, _ := cmd.Flags().GetString("locale")
	features, _ := cmd.Flags().GetStringSlice("features")
	format, _ := cmd.Flags().GetString("format")

	req := docintel.AnalyzeRequest{
		ModelID:             model,
		URL:                 docURL,
		Pages:               pages,
		Locale:              locale,
		Features:            features,
		OutputContentFormat: format,
	}

	switch {
	case file == "" && docURL == "":
		return req, errors.New("--file or --url is required")
	case file != "":
		content, err := os.ReadFile(file)
		if err != nil {
			return req, fmt.Errorf("failed to read document: %w", err)
		}
		req.Content = content
	}

	return req, nil
}
