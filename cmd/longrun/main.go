// Package main is the entry point for the longrun CLI.
//
// longrun drives long-running document operations to completion, either as
// a batch described by a YAML configuration or one operation at a time
// against Azure Document Intelligence.
//
// Usage:
//
//	longrun run -c config.yaml                 # Drive every configured job
//	longrun validate -c config.yaml            # Validate configuration
//	longrun analyze --file receipt.pdf         # Analyze one document
//	longrun status --operation <url>           # Check an operation
//	longrun version                            # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "longrun",
	Short: "Drive long-running document operations to completion",
	Long: `longrun starts long-running operations on document services and polls
them until they finish.

Supported services:
  docintel  Azure AI Document Intelligence (analyze, build, copy)
  docling   docling-serve asynchronous conversion
  rest      any REST API following the submit/poll/fetch pattern

Quick start:
  1. Create a config file (longrun.yaml)
  2. Run: longrun run -c longrun.yaml
  3. Open http://localhost:8080 while it runs (server.enabled: true)

Example config:
  service:
    type: docintel
    endpoint: ${DOCINTEL_ENDPOINT}
    key: ${DOCINTEL_KEY}
  polling:
    strategy: exponential
    timeout: 10m
  documents:
    - name: receipt
      path: ./receipt.pdf
      model: prebuilt-receipt`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this longrun binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "longrun %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}
