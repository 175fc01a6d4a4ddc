package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// executeCmd runs the root command with args and returns captured stdout
// and any error.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	defer rootCmd.SetOut(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// since cobra keeps parsed values between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configPath
}

func TestRunValidate_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
service:
  type: docintel
  endpoint: https://example.cognitiveservices.azure.com
polling:
  strategy: exponential
  interval: 10s
documents:
  - name: receipt
    url: https://example.com/receipt.pdf
batches:
  - name: statements
    url_template: "https://example.com/{{.month}}.pdf"
    dimensions:
      month: [jan, feb]
`)

	output, err := executeCmd(t, "validate", "-c", configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"Service:       docintel",
		"Strategy:      exponential",
		"Poll interval: 10s",
		"1 direct + 2 from batches = 3 total",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, `
service:
  type: docintel
  endpoint: https://example.cognitiveservices.azure.com
documents:
  - name: ""
    url: https://example.com/receipt.pdf
`)

	_, err := executeCmd(t, "validate", "-c", configPath)
	if err == nil {
		t.Fatal("validate command expected error for invalid config, got nil")
	}

	if !strings.Contains(err.Error(), "name: is required") {
		t.Errorf("error should mention 'name: is required', got: %v", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeCmd(t, "validate", "-c", "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("validate command expected error for missing file, got nil")
	}

	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error should mention 'failed to read', got: %v", err)
	}
}

func TestVersion(t *testing.T) {
	output, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.HasPrefix(output, "longrun dev") {
		t.Errorf("output = %q, want version line", output)
	}
}
