package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/voice-match/configs"
	"github.com/RyanBlaney/voice-match/internal/app"
)

var (
	configFile   string
	verbose      bool
	quiet        bool
	logLevel     string
	logFile      string
	outputFormat string
	outputFile   string
	dataDir      string
	inMemory     bool
	inputFormat  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voice-match",
	Short: "Voice feature extraction and similarity scoring",
	Long: `Compare short voice recordings by their acoustic fingerprint.

Each recording is decoded to mono PCM, summarised as a small set of
features (waveform envelope, energy, zero crossing rate, peak amplitude,
spectral centroid and flatness) and scored against another recording on
a 0 to 100 scale. Recordings shorter than half a second are penalised.

Key features:
- WAV, MP3 and raw PCM decoding built in; WebM, Ogg and FLAC via ffmpeg
- Enrollment store for per-user reference samples
- Accept, borderline and reject verdicts with configurable thresholds
- JSON, YAML, CSV and table output`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/voice-match/voice-match.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"data directory (default is $HOME/.local/share/voice-match)")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "in-memory", false,
		"keep enrolled samples in memory for this run only")
	rootCmd.PersistentFlags().StringVar(&inputFormat, "input-format", "",
		"decode every recording as this format instead of detecting it (wav, mp3, ogg, webm, flac, raw)")

	// Output and logging flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"only log errors")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write structured logs to this file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table",
		"output format (json, table, csv, yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFile, "output-file", "",
		"write results to a file instead of stdout")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("store.in_memory", rootCmd.PersistentFlags().Lookup("in-memory"))
	viper.BindPFlag("decoder.format", rootCmd.PersistentFlags().Lookup("input-format"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(configs.DefaultConfigDir())
		viper.AddConfigPath(filepath.Join("/etc", configs.AppName))
		viper.AddConfigPath("./configs")
		viper.SetConfigName(configs.AppName)
		viper.SetConfigType("yaml")
	}

	// Environment variable support
	viper.SetEnvPrefix(configs.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	} else if configFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config file %s: %v\n", configFile, err)
	}
}

// initializeConfig initializes configuration after flags are parsed
func initializeConfig(cmd *cobra.Command) error {
	return bindFlags(cmd, viper.GetViper())
}

// bindFlags exposes each command local flag as an environment variable,
// e.g. --phrase as VOICE_MATCH_PHRASE
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		key := cmd.Name() + "." + f.Name

		if err := v.BindEnv(key, configs.EnvPrefix+"_"+envVarSuffix); err != nil {
			lastErr = err
			return
		}

		// Apply the environment value to the flag when the flag is not set
		if !f.Changed && v.IsSet(key) {
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(key))); err != nil {
				lastErr = err
			}
		}
	})

	return lastErr
}

// newApp builds the application for a command run
func newApp(cmd *cobra.Command) (*app.App, error) {
	return app.NewApp(&app.Context{
		OutputFile: outputFile,
		Verbose:    verbose,
		Quiet:      quiet,
		Stdin:      cmd.InOrStdin(),
		Stdout:     cmd.OutOrStdout(),
	})
}

// GetConfig returns the current viper instance
func GetConfig() *viper.Viper {
	return viper.GetViper()
}
