package app

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/latency-benchmark-common/output"
	"github.com/tunein/go-logging/v7/pkg/logger"
	"github.com/tunein/go-logging/v7/pkg/logger/logtypes"
	"github.com/tunein/go-logging/v7/pkg/rootcollector"
	"github.com/tunein/go-logging/v7/pkg/rootlogger"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/RyanBlaney/voice-match/configs"
	"github.com/RyanBlaney/voice-match/internal/auth"
	"github.com/RyanBlaney/voice-match/internal/engine"
	"github.com/RyanBlaney/voice-match/internal/store"
	"github.com/RyanBlaney/voice-match/pkg/audio/features"
)

var titleCaser = cases.Title(language.English)

// Context holds the CLI arguments and runtime state of one invocation
type Context struct {
	// CLI arguments
	ConfigFile   string // Application configuration file (optional)
	OutputFile   string
	OutputFormat string
	Verbose      bool
	Quiet        bool

	// Overrides loaded config when set
	Config *configs.Config

	// Runtime context
	Logger logging.Logger
	Stdin  io.Reader
	Stdout io.Writer
}

// App wires configuration, engine, store and authenticator for the CLI
type App struct {
	ctx    *Context
	config *configs.Config
	logger logging.Logger
	engine *engine.Engine

	mu    sync.Mutex
	store store.Store
	auth  *auth.Authenticator
}

// NewApp loads configuration and builds the comparison engine. The store is
// opened on first use.
func NewApp(ctx *Context) (*App, error) {
	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogging(ctx, config)
	ctx.Logger = logger

	e, err := NewEngine(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	logger.Debug("Application initialized", logging.Fields{
		"config_file":   ctx.ConfigFile,
		"output_format": config.OutputFormat,
		"fft_size":      config.Features.FFTSize,
		"store_dir":     config.StoreDir(),
		"in_memory":     config.Store.InMemory,
	})

	return &App{
		ctx:    ctx,
		config: config,
		logger: logger,
		engine: e,
	}, nil
}

// loadAndMergeConfig resolves config from the context, a file or viper, then
// applies CLI overrides and validates the result
func loadAndMergeConfig(ctx *Context) (*configs.Config, error) {
	var (
		config *configs.Config
		err    error
	)

	switch {
	case ctx.Config != nil:
		config = ctx.Config
	case ctx.ConfigFile != "":
		config, err = LoadConfigFile(ctx.ConfigFile)
	default:
		config, err = configs.LoadConfig()
	}
	if err != nil {
		return nil, err
	}

	if ctx.OutputFormat != "" {
		config.OutputFormat = ctx.OutputFormat
	}
	if ctx.Verbose {
		config.Verbose = true
	}

	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// logLevel resolves the effective level name. Machine readable output keeps
// stdout parseable, so routine info lines are dropped unless asked for.
func logLevel(ctx *Context, config *configs.Config) string {
	level := strings.ToLower(config.LogLevel)
	switch {
	case ctx.Quiet:
		return "error"
	case config.Verbose:
		return "debug"
	case level == "warning":
		return "warn"
	case level == "debug", level == "warn", level == "error":
		return level
	case config.OutputFormat != "table":
		return "warn"
	default:
		return "info"
	}
}

// setupLogging applies the configured level to the global logger and, when a
// log file is set, routes the structured logger output to it. The returned
// logger derives from the global one so the level reaches every component.
func setupLogging(ctx *Context, config *configs.Config) logging.Logger {
	switch logLevel(ctx, config) {
	case "error":
		logging.SetLevel(logging.ErrorLevel)
	case "warn":
		logging.SetLevel(logging.WarnLevel)
	case "debug":
		logging.SetLevel(logging.DebugLevel)
	default:
		logging.SetLevel(logging.InfoLevel)
	}

	if config.LogFile != "" {
		err := rootlogger.Configure(logger.LogOptions{
			Out:          config.LogFile,
			ReopenSignal: syscall.SIGHUP,
			Level:        logtypes.InfoLevel,
		})
		if err != nil {
			logging.Error(err, "Failed configuring log writer")
		}
	}

	if ctx.Logger != nil {
		return ctx.Logger
	}
	return logging.WithFields(logging.Fields{"app": configs.AppName})
}

// Config returns the effective configuration
func (app *App) Config() *configs.Config {
	return app.config
}

// Engine returns the comparison engine
func (app *App) Engine() *engine.Engine {
	return app.engine
}

// Store opens the enrollment store on first call
func (app *App) Store() (store.Store, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.store != nil {
		return app.store, nil
	}

	s, err := OpenStore(app.config, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample store: %w", err)
	}
	app.store = s
	return s, nil
}

// Authenticator returns the authenticator, opening the store if needed
func (app *App) Authenticator() (*auth.Authenticator, error) {
	s, err := app.Store()
	if err != nil {
		return nil, err
	}

	app.mu.Lock()
	defer app.mu.Unlock()

	if app.auth == nil {
		app.auth, err = auth.NewAuthenticator(app.engine, s, app.config.Auth, app.logger)
		if err != nil {
			return nil, err
		}
	}
	return app.auth, nil
}

// Close releases the store
func (app *App) Close() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.store == nil {
		return nil
	}
	err := app.store.Close()
	app.store = nil
	app.auth = nil
	return err
}

// ReadAudio reads a recording from path; "-" reads standard input
func (app *App) ReadAudio(path string) ([]byte, error) {
	if path == "-" {
		in := app.ctx.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	return data, nil
}

// Compare scores a query recording against one or more references
func (app *App) Compare(ctx context.Context, queryPath string, refPaths ...string) ([]*engine.Comparison, error) {
	if len(refPaths) == 0 {
		return nil, fmt.Errorf("at least one reference recording is required")
	}

	query, err := app.ReadAudio(queryPath)
	if err != nil {
		return nil, err
	}

	refs := make([][]byte, len(refPaths))
	for i, p := range refPaths {
		if refs[i], err = app.ReadAudio(p); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	var comparisons []*engine.Comparison
	if len(refs) == 1 {
		c, err := app.engine.Compare(ctx, query, refs[0])
		if err != nil {
			return nil, err
		}
		comparisons = []*engine.Comparison{c}
	} else {
		comparisons, err = app.engine.CompareMany(ctx, query, refs)
		if err != nil {
			return nil, err
		}
	}

	app.metric("compare.duration.ms", time.Since(start).Milliseconds(), []string{
		fmt.Sprintf("references:%d", len(refs)),
	})
	for _, c := range comparisons {
		app.metric("compare.score", int64(math.Round(c.Score)), []string{
			fmt.Sprintf("penalty:%t", c.PenaltyApplied),
		})
	}

	return comparisons, nil
}

// Extract fingerprints a single recording
func (app *App) Extract(ctx context.Context, path string) (features.AudioFeatures, error) {
	data, err := app.ReadAudio(path)
	if err != nil {
		return features.AudioFeatures{}, err
	}
	return app.engine.ExtractBlob(ctx, data)
}

// Enroll stores a recording for userID
func (app *App) Enroll(ctx context.Context, userID, phrase, path string) (*auth.Enrollment, error) {
	a, err := app.Authenticator()
	if err != nil {
		return nil, err
	}
	data, err := app.ReadAudio(path)
	if err != nil {
		return nil, err
	}

	enrollment, err := a.Enroll(ctx, userID, phrase, data)
	if err != nil {
		return nil, err
	}
	app.metric("enroll.samples", int64(enrollment.Status.Samples), []string{
		fmt.Sprintf("complete:%t", enrollment.Status.Complete),
	})
	return enrollment, nil
}

// Verify scores a recording against userID's enrolled samples
func (app *App) Verify(ctx context.Context, userID, path string) (*auth.Decision, error) {
	a, err := app.Authenticator()
	if err != nil {
		return nil, err
	}
	data, err := app.ReadAudio(path)
	if err != nil {
		return nil, err
	}

	decision, err := a.Verify(ctx, userID, data)
	if err != nil {
		return nil, err
	}

	tags := []string{
		"verdict:" + string(decision.Verdict),
		"strategy:" + string(decision.Strategy),
	}
	app.metric("verify.score", int64(math.Round(decision.Score)), tags)
	app.metric("verify.duration.ms", decision.ProcessingTime.Milliseconds(), tags)
	return decision, nil
}

// metric sends a metric to rootcollector when metrics are enabled
func (app *App) metric(name string, value int64, tags []string) {
	if !app.config.Metrics.Enabled {
		return
	}
	if app.config.Metrics.Prefix != "" {
		name = app.config.Metrics.Prefix + "." + name
	}
	rootcollector.Metric(name, value, tags)
}

// ComparisonReport flattens a comparison for output. Feature vectors are
// only included when verbose.
func ComparisonReport(c *engine.Comparison, verbose bool) map[string]any {
	report := map[string]any{
		"score":              c.Score,
		"raw_similarity":     c.RawSimilarity,
		"penalty_applied":    c.PenaltyApplied,
		"components":         c.Components,
		"first_duration":     c.First.Duration,
		"second_duration":    c.Second.Duration,
		"processing_time_ms": c.ProcessingTime.Milliseconds(),
	}
	if verbose {
		report["first"] = c.First
		report["second"] = c.Second
	}
	return report
}

// DecisionReport flattens a verification decision for output
func DecisionReport(d *auth.Decision) map[string]any {
	report := map[string]any{
		"user_id":            d.UserID,
		"score":              d.Score,
		"verdict":            titleCaser.String(string(d.Verdict)),
		"message":            d.Message,
		"strategy":           string(d.Strategy),
		"compared":           d.Compared,
		"scores":             d.Scores,
		"stats":              d.Stats,
		"penalty_applied":    d.PenaltyApplied,
		"processing_time_ms": d.ProcessingTime.Milliseconds(),
	}
	if d.Strategy != auth.StrategyMean {
		report["reference_id"] = d.ReferenceID.String()
	}
	return report
}

// Output formats data in the configured format and writes it to the output
// file or stdout
func (app *App) Output(data any) error {
	var formatter output.Formatter
	switch app.config.OutputFormat {
	case "json":
		formatter = &output.JSONFormatter{}
	case "yaml":
		formatter = &output.YAMLFormatter{}
	case "csv":
		formatter = &output.CSVFormatter{}
	case "table":
		formatter = &output.TableFormatter{}
	default:
		formatter = &output.JSONFormatter{}
	}

	formattedData, err := formatter.Format(sanitizeForJSON(data), true)
	if err != nil {
		return fmt.Errorf("failed to format output data: %w", err)
	}

	if app.ctx.OutputFile != "" {
		return app.writeToFile(formattedData)
	}

	out := app.ctx.Stdout
	if out == nil {
		out = os.Stdout
	}
	_, err = out.Write(formattedData)
	return err
}

// writeToFile writes data to the specified output file
func (app *App) writeToFile(data []byte) error {
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(app.ctx.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": app.ctx.OutputFile,
		"size_bytes":  len(data),
	})

	return nil
}
