package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var samplesResetConfirm bool

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Inspect and manage enrolled samples",
}

var samplesListCmd = &cobra.Command{
	Use:   "list [user-id]",
	Short: "List a user's samples from oldest to newest",
	Args:  cobra.ExactArgs(1),
	RunE:  runSamplesList,
}

var samplesUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users with enrolled samples",
	Args:  cobra.NoArgs,
	RunE:  runSamplesUsers,
}

var samplesClearCmd = &cobra.Command{
	Use:   "clear [user-id]",
	Short: "Remove every sample of a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runSamplesClear,
}

var samplesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every sample of every user",
	Args:  cobra.NoArgs,
	RunE:  runSamplesReset,
}

func init() {
	rootCmd.AddCommand(samplesCmd)
	samplesCmd.AddCommand(samplesListCmd, samplesUsersCmd, samplesClearCmd, samplesResetCmd)

	samplesResetCmd.Flags().BoolVar(&samplesResetConfirm, "yes", false,
		"confirm removing all samples")
}

func runSamplesList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.Store()
	if err != nil {
		return err
	}
	samples, err := s.List(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	rows := make([]any, len(samples))
	for i, sample := range samples {
		rows[i] = map[string]any{
			"id":         sample.ID.String(),
			"phrase":     sample.Phrase,
			"format":     sample.Format,
			"bytes":      sample.Size(),
			"created_at": sample.CreatedAt,
		}
	}
	return a.Output(rows)
}

func runSamplesUsers(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.Store()
	if err != nil {
		return err
	}
	users, err := s.Users(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([]any, len(users))
	for i, user := range users {
		n, err := s.Count(cmd.Context(), user)
		if err != nil {
			return err
		}
		rows[i] = map[string]any{"user_id": user, "samples": n}
	}
	return a.Output(rows)
}

func runSamplesClear(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	authenticator, err := a.Authenticator()
	if err != nil {
		return err
	}
	if err := authenticator.Reset(cmd.Context(), args[0]); err != nil {
		return err
	}
	if !quiet {
		printSuccess(cmd.ErrOrStderr(), "Cleared samples for %s", args[0])
	}
	return nil
}

func runSamplesReset(cmd *cobra.Command, args []string) error {
	if !samplesResetConfirm {
		return errors.New("refusing to remove all samples without --yes")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.Store()
	if err != nil {
		return err
	}
	if err := s.Reset(cmd.Context()); err != nil {
		return err
	}
	if !quiet {
		printSuccess(cmd.ErrOrStderr(), "Removed all samples")
	}
	return nil
}
