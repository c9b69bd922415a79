package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	enrollPhrase  string
	enrollTimeout time.Duration
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [user-id] [recording...]",
	Short: "Store reference recordings for a user",
	Long: `Validate and store one or more recordings of the passphrase for a user.
Recordings that cannot be decoded or contain no audio are rejected.
Enrollment is complete once the configured number of samples is stored.

Examples:
  voice-match enroll alice take1.webm take2.webm take3.webm
  voice-match enroll --phrase "Open sesame" bob take1.wav`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEnroll,
}

var statusCmd = &cobra.Command{
	Use:   "status [user-id]",
	Short: "Show enrollment progress for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(statusCmd)

	enrollCmd.Flags().StringVar(&enrollPhrase, "phrase", "",
		"phrase spoken in the recordings (default is auth.phrase)")
	enrollCmd.Flags().DurationVar(&enrollTimeout, "timeout", 60*time.Second,
		"timeout for validating and storing the recordings")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), enrollTimeout)
	defer cancel()

	userID := args[0]
	results := make([]any, 0, len(args)-1)
	message := ""
	for _, path := range args[1:] {
		enrollment, err := a.Enroll(ctx, userID, enrollPhrase, path)
		if err != nil {
			return fmt.Errorf("failed to enroll %s: %w", path, err)
		}
		results = append(results, map[string]any{
			"recording": path,
			"sample_id": enrollment.Sample.ID.String(),
			"duration":  enrollment.Duration,
			"samples":   enrollment.Status.Samples,
			"required":  enrollment.Status.Required,
			"complete":  enrollment.Status.Complete,
		})
		if enrollment.Message != "" {
			message = enrollment.Message
		}
	}

	if err := a.Output(results); err != nil {
		return err
	}
	if message != "" && !quiet {
		printSuccess(cmd.ErrOrStderr(), "%s", message)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	authenticator, err := a.Authenticator()
	if err != nil {
		return err
	}

	status, err := authenticator.EnrollmentStatus(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return a.Output(status)
}
