package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/killallgit/study-api/pkg/config"
)

// skipConfig marks commands that run without loading settings
const skipConfig = "skip-config"

var logger = zap.NewNop()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "study-api",
	Short: "Study Sync API server",
	Long: `Study Sync API - study, annotation and recording sync for the 3D model viewer

The server exposes every study directory under the samples root, serves the
model files themselves and persists annotations and screen recording
references next to them.

Features:
  • Study listing and detail with LAN-reachable model urls
  • Per-model annotation files with full replace semantics
  • Append-only video ledger per study
  • Optional activity log backed by SQLite
  • Prometheus metrics and Swagger docs`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates a new root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error), overrides logging.level")
	rootCmd.PersistentFlags().Bool("json-logs", false, "force JSON formatted logs")
}

// setup loads the configuration and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfig] == "true" || cmd.Name() == "help" {
		return nil
	}

	if err := config.Init(); err != nil {
		return fmt.Errorf("error initializing config: %w", err)
	}

	level := config.GetString("logging.level")
	if flagLevel, _ := cmd.Flags().GetString("log-level"); flagLevel != "" {
		level = flagLevel
	}
	format := config.GetString("logging.format")
	if jsonLogs, _ := cmd.Flags().GetBool("json-logs"); jsonLogs {
		format = "json"
	}

	l, err := newLogger(level, format)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// newLogger builds a production (json) or development (console) logger
func newLogger(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "", "json":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}
