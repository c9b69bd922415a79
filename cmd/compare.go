package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/voice-match/internal/app"
)

var compareTimeout time.Duration

var compareCmd = &cobra.Command{
	Use:   "compare [query] [reference...]",
	Short: "Score a recording against one or more references",
	Long: `Decode and fingerprint the query and every reference recording and
report a 0 to 100 match score for each reference.

A path of "-" reads the query from standard input.

Examples:
  # Compare two recordings
  voice-match compare attempt.webm enrolled.webm

  # Score against several references in parallel
  voice-match compare -o json attempt.wav ref1.wav ref2.wav ref3.wav`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().DurationVar(&compareTimeout, "timeout", 30*time.Second,
		"timeout for decoding and scoring")
}

func runCompare(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), compareTimeout)
	defer cancel()

	comparisons, err := a.Compare(ctx, args[0], args[1:]...)
	if err != nil {
		return err
	}

	if len(comparisons) == 1 {
		report := app.ComparisonReport(comparisons[0], verbose)
		report["reference"] = args[1]
		return a.Output(report)
	}

	reports := make([]any, len(comparisons))
	for i, c := range comparisons {
		report := app.ComparisonReport(c, verbose)
		report["reference"] = args[i+1]
		reports[i] = report
	}
	return a.Output(map[string]any{
		"query":       args[0],
		"comparisons": reports,
	})
}
