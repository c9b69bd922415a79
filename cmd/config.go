package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/voice-match/configs"
	"github.com/RyanBlaney/voice-match/internal/app"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, display and validate configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with every default value",
	Long: `Write the default configuration as YAML. The default location is
$HOME/.config/voice-match/voice-match.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration after defaults, the config file, environment
variables (VOICE_MATCH_*) and flags are applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a config file or the effective configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false,
		"overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := getConfigFilePath()
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := app.WriteConfigFile(path, configs.GetDefaultConfig()); err != nil {
		return err
	}
	printSuccess(cmd.ErrOrStderr(), "Wrote default configuration to %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "VOICE MATCH CONFIGURATION")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	if used := viper.ConfigFileUsed(); used != "" {
		printKeyValue(w, "Config File", used)
	}

	printSection(w, "APPLICATION SETTINGS")
	printKeyValue(w, "Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue(w, "Log Level", config.LogLevel)
	printKeyValue(w, "Log File", config.LogFile)
	printKeyValue(w, "Output Format", config.OutputFormat)
	printKeyValue(w, "Data Directory", config.DataDir)

	printSection(w, "DECODER")
	printKeyValue(w, "FFmpeg Path", config.Decoder.FFmpegPath)
	printKeyValue(w, "FFmpeg Sample Rate", fmt.Sprintf("%d", config.Decoder.FFmpegSampleRate))
	printKeyValue(w, "Target Sample Rate", fmt.Sprintf("%d", config.Decoder.TargetSampleRate))
	printKeyValue(w, "Raw Format", config.Decoder.RawFormat)
	printKeyValue(w, "Raw Sample Rate", fmt.Sprintf("%d", config.Decoder.RawSampleRate))
	printKeyValue(w, "Raw Channels", fmt.Sprintf("%d", config.Decoder.RawChannels))
	printKeyValue(w, "Prefer Transcode", fmt.Sprintf("%t", config.Decoder.PreferTranscode))
	printKeyValue(w, "Input Format", config.Decoder.Format)

	printSection(w, "FEATURES")
	printKeyValue(w, "FFT Size", fmt.Sprintf("%d", config.Features.FFTSize))
	printKeyValue(w, "Hop Size", fmt.Sprintf("%d", config.Features.WithDefaults().HopSize))
	printKeyValue(w, "Window", config.Features.Window)

	printSection(w, "SIMILARITY WEIGHTS")
	weights := config.Similarity.Weights
	printKeyValue(w, "Waveform", fmt.Sprintf("%.3f", weights.Waveform))
	printKeyValue(w, "Energy", fmt.Sprintf("%.3f", weights.Energy))
	printKeyValue(w, "Zero Crossings", fmt.Sprintf("%.3f", weights.ZeroCrossings))
	printKeyValue(w, "Max Amplitude", fmt.Sprintf("%.3f", weights.MaxAmplitude))
	printKeyValue(w, "Spectral Centroid", fmt.Sprintf("%.3f", weights.SpectralCentroid))
	printKeyValue(w, "Spectral Flatness", fmt.Sprintf("%.3f", weights.SpectralFlatness))

	printSection(w, "ENGINE")
	printKeyValue(w, "Min Duration", fmt.Sprintf("%.2fs", config.Engine.MinDuration))
	printKeyValue(w, "Short Penalty", fmt.Sprintf("%.2f", config.Engine.ShortPenalty))
	printKeyValue(w, "Max Concurrency", fmt.Sprintf("%d", config.Engine.MaxConcurrency))

	printSection(w, "AUTH")
	printKeyValue(w, "Accept Threshold", fmt.Sprintf("%.1f", config.Auth.AcceptThreshold))
	printKeyValue(w, "Borderline Threshold", fmt.Sprintf("%.1f", config.Auth.BorderlineThreshold))
	printKeyValue(w, "Required Samples", fmt.Sprintf("%d", config.Auth.RequiredSamples))
	printKeyValue(w, "Strategy", string(config.Auth.Strategy))
	printKeyValue(w, "Phrase", config.Auth.Phrase)

	printSection(w, "STORE")
	printKeyValue(w, "Directory", config.StoreDir())
	printKeyValue(w, "In Memory", fmt.Sprintf("%t", config.Store.InMemory))

	printSection(w, "METRICS")
	printKeyValue(w, "Enabled", fmt.Sprintf("%t", config.Metrics.Enabled))
	printKeyValue(w, "Prefix", config.Metrics.Prefix)

	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	var (
		config *configs.Config
		err    error
		source = "effective configuration"
	)

	if len(args) == 1 {
		source = args[0]
		config, err = app.LoadConfigFile(args[0])
	} else {
		config, err = configs.LoadConfig()
	}
	if err != nil {
		return err
	}

	if err := configs.ValidateConfig(config); err != nil {
		printError(cmd.ErrOrStderr(), "%s is invalid: %v", source, err)
		return errors.New("configuration is invalid")
	}
	printSuccess(cmd.ErrOrStderr(), "%s is valid", source)
	return nil
}

func getConfigFilePath() string {
	if configFile != "" {
		return configFile
	}
	return filepath.Join(configs.DefaultConfigDir(), configs.AppName+".yaml")
}
