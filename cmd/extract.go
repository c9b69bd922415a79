package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var extractTimeout time.Duration

var extractCmd = &cobra.Command{
	Use:   "extract [recording]",
	Short: "Print the acoustic fingerprint of a recording",
	Long: `Decode a recording and print its features: the 128 point waveform
envelope, energy, zero crossing rate, peak amplitude, spectral centroid,
spectral flatness and duration.

Examples:
  voice-match extract -o yaml sample.wav
  cat sample.mp3 | voice-match extract -o json -`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 30*time.Second,
		"timeout for decoding")
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), extractTimeout)
	defer cancel()

	f, err := a.Extract(ctx, args[0])
	if err != nil {
		return err
	}
	return a.Output(f)
}
