package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

func newLogger(level string) (*slog.Logger, error) {
	l, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

// newRootCmd builds the command tree. Reports are written to out.
func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "cbpsim",
		Short: "Trace-driven timing simulator of an out-of-order core.",
		Long: `cbpsim replays a binary instruction trace through the timing ` +
			`model of an out-of-order core with a configurable branch ` +
			`predictor, cache hierarchy and value predictor.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(newRunCmd())
	root.AddCommand(newConfigCmd())

	return root
}
