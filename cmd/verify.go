package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/voice-match/internal/app"
	"github.com/RyanBlaney/voice-match/internal/auth"
)

var (
	verifyStrict  bool
	verifyTimeout time.Duration
)

var verifyCmd = &cobra.Command{
	Use:   "verify [user-id] [recording]",
	Short: "Score a recording against a user's enrolled samples",
	Long: `Compare a recording with the user's enrolled samples and report the
score together with a verdict:

  accepted     score >= auth.accept_threshold (default 90)
  borderline   score >= auth.borderline_threshold (default 70)
  rejected     otherwise

The strategy selects the samples used: newest (default) compares with the
most recent sample, best keeps the highest score over all samples and mean
averages them.

Examples:
  voice-match verify alice attempt.webm
  voice-match verify --strategy best --strict alice attempt.wav`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("strategy", string(auth.StrategyNewest),
		"samples to compare against (newest, best, mean)")
	verifyCmd.Flags().BoolVar(&verifyStrict, "strict", false,
		"exit with an error unless the verdict is accepted")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 60*time.Second,
		"timeout for decoding and scoring")

	viper.BindPFlag("auth.strategy", verifyCmd.Flags().Lookup("strategy"))
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), verifyTimeout)
	defer cancel()

	decision, err := a.Verify(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	if err := a.Output(app.DecisionReport(decision)); err != nil {
		return err
	}
	if !quiet && a.Config().OutputFormat == "table" {
		printVerdict(cmd.ErrOrStderr(), decision)
	}

	if verifyStrict && decision.Verdict != auth.VerdictAccepted {
		return fmt.Errorf("verification %s for %s: score %.1f", decision.Verdict, args[0], decision.Score)
	}
	return nil
}
