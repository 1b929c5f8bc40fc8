package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dermascan/internal/config"
	"dermascan/internal/logging"
	"dermascan/internal/predict"
	"dermascan/internal/telemetry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	endpoint   string
	timeout    time.Duration
	cameraFile string
	logFile    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "dermascan",
	Short: "Photograph or upload a skin image and get a diagnosis",
	Long: `dermascan sends a photo to a classification service and shows the
predicted label, a confidence bar and alternative matches.

Run without arguments to start the interactive terminal UI.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/dermascan/config.yaml)")
	pf.StringVar(&endpoint, "endpoint", "", "classification service base URL")
	pf.DurationVar(&timeout, "timeout", 0, "analyze request timeout")
	pf.StringVar(&cameraFile, "camera-file", "", "serve this image as the camera feed")
	pf.StringVar(&logFile, "log-file", "", "diagnostics log file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(predictCmd, healthCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// appEnv holds what every subcommand needs.
type appEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	tp     *telemetry.Provider
	client *predict.Client
}

// setup loads configuration (file, env, then flags) and builds the logger,
// tracer and service client. console adds stderr logging for the
// non-interactive subcommands.
func setup(cmd *cobra.Command, console bool) (*appEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		File:    cfg.Log.File,
		Verbose: cfg.Log.Verbose,
		Console: console && cfg.Log.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tp, err := telemetry.NewProvider(cmd.Context())
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		tp = nil
	}

	client, err := predict.NewClient(cfg.Endpoint,
		predict.WithTimeout(cfg.RequestTimeout),
		predict.WithTracer(tp.Tracer()),
		predict.WithLogger(logger.Named("predict")),
	)
	if err != nil {
		release(logger, tp)
		return nil, err
	}
	logger.Debug("configured",
		zap.String("endpoint", cfg.Endpoint),
		zap.Duration("timeout", cfg.RequestTimeout),
		zap.Bool("tracing", tp.Enabled()))
	return &appEnv{cfg: cfg, logger: logger, tp: tp, client: client}, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("endpoint") {
		cfg.Endpoint = endpoint
	}
	if f.Changed("timeout") {
		cfg.RequestTimeout = timeout
	}
	if f.Changed("camera-file") {
		cfg.Camera.File = cameraFile
	}
	if f.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if f.Changed("verbose") {
		cfg.Log.Verbose = verbose
	}
}

func (r *appEnv) Close() {
	r.client.Close()
	release(r.logger, r.tp)
}

// release flushes spans and the log.
func release(logger *zap.Logger, tp *telemetry.Provider) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		logger.Warn("trace shutdown", zap.Error(err))
	}
	_ = logger.Sync()
}
