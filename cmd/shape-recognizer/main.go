package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/shape-recognizer/internal/config"
	"github.com/ironsheep/shape-recognizer/internal/recognizer"
	"github.com/ironsheep/shape-recognizer/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	cfgFile      string
	logLevel     string
	trainingPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shape-recognizer",
	Short: "Classify hand-drawn shapes against labeled training data",
	Long: `shape-recognizer extracts the outline of a hand-drawn shape, reduces it
to a Fourier shape signature and matches it against a labeled training set.

Run without a subcommand to start the MCP server on stdin/stdout.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdin/stdout",
	Long: `Run the MCP server. Requests are read from stdin one per line and
responses written to stdout; logs go to stderr.

Training data named by --training, the config file or
SHAPE_RECOGNIZER_TRAINING_DATA is loaded at startup. A failed startup load is
logged and the server still starts, so a client can load data later with the
shape_load_training_data tool.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "shape-recognizer %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  Build time: %s\n", BuildTime)
		fmt.Fprintf(cmd.OutOrStdout(), "  Git commit: %s\n", GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (missing file uses defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&trainingPath, "training", "t", "", "training data file (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(describeCmd())
	rootCmd.AddCommand(trainCmd())

	// If no command is specified, default to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if trainingPath != "" {
		cfg.TrainingData = trainingPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes text logs to stderr; stdout is reserved for output and
// the MCP protocol.
func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// setup builds the config, logger and recognizer shared by every command.
func setup() (*config.Config, *slog.Logger, *recognizer.Recognizer, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	rec, err := recognizer.New(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, rec, nil
}

func runServe() error {
	cfg, logger, rec, err := setup()
	if err != nil {
		return err
	}

	logger.Debug("starting server", "version", Version, "built", BuildTime, "commit", GitCommit)

	if cfg.TrainingData != "" {
		if err := rec.Load(cfg.TrainingData); err != nil {
			logger.Error("startup training data load failed", "path", cfg.TrainingData, "error", err)
		}
	}

	srv := server.New(rec, server.WithLogger(logger), server.WithVersion(Version))
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
