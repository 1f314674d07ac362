// Package main is the CLI entry point for applock.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
	"github.com/eliteGoblin/focusd/app_lock/internal/infra"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "applock",
	Short: "Hold-to-unlock block screen for distracting apps",
	Long: `applock watches which application is in the foreground. When a locked app
comes up it shows a block screen that only goes away after you press and
hold for the configured number of seconds, or leave to the desktop.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath  string
	dataDirFlag string
	jsonOutput  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/applock/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory override")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(versionCmd)
}

// app is what every command needs: paths, settings, the registry and a logger.
type app struct {
	paths    *infra.ExecModeConfig
	settings *infra.ViperSettings
	registry domain.LockedAppRegistry
	closer   io.Closer
	logger   *zap.Logger
}

func openApp() (*app, error) {
	paths := infra.DetectExecMode()
	if configPath != "" {
		paths.ConfigPath = configPath
		paths.ConfigDir = filepath.Dir(configPath)
	}

	settings, err := infra.LoadSettings(paths.ConfigPath, paths.DataDir, zap.NewNop())
	if err != nil {
		return nil, err
	}

	cfg := settings.Config()
	if dataDirFlag != "" {
		cfg.Store.DataDir = dataDirFlag
	}
	paths = paths.WithDataDir(cfg.Store.DataDir)

	logger := createLogger(paths.LogPath, cfg.LogLevel)
	settings.SetLogger(logger)

	registry, closer, err := infra.OpenRegistry(infra.StoreConfig{
		Backend: cfg.Store.Backend,
		DataDir: paths.DataDir,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		paths:    paths,
		settings: settings,
		registry: registry,
		closer:   closer,
		logger:   logger,
	}, nil
}

func (a *app) Close() {
	if err := a.closer.Close(); err != nil {
		a.logger.Warn("failed to close registry", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp runs fn with an opened app and closes it afterwards.
func withApp(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(a, cmd, args)
	}
}

// createLogger writes JSON logs to path; stdout belongs to the block screen.
func createLogger(path, level string) *zap.Logger {
	config := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if err := os.MkdirAll(filepath.Dir(path), 0700); err == nil {
		if logger, err := config.Build(); err == nil {
			return logger
		}
	}
	// Fallback to stderr if file logging fails
	logger, _ := zap.NewProduction()
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("applock %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
