package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newLogger creates a JSON logger on stderr at the level given by the
// --log-level flag.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", raw)
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})), nil
}
