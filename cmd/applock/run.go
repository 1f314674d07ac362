package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/daemon"
	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
	"github.com/eliteGoblin/focusd/app_lock/internal/infra"
	"github.com/eliteGoblin/focusd/app_lock/internal/infra/linesource"
	"github.com/eliteGoblin/focusd/app_lock/internal/infra/x11"
	"github.com/eliteGoblin/focusd/app_lock/internal/overlay"
	"github.com/eliteGoblin/focusd/app_lock/internal/usecase"
)

const (
	sourceX11   = "x11"
	sourceStdin = "stdin"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the foreground app and show the block screen",
	Long: `Runs the enforcement loop in the foreground. Foreground changes come from
the X11 window manager (--source x11) or from lines on stdin
(--source stdin, one "<appId> [display name]" per line).

The block screen is drawn on the controlling terminal. Hold the left mouse
button anywhere on it to unlock; press q or esc to leave to the desktop.`,
	RunE: withApp(runRun),
}

var sourceFlag string

func init() {
	runCmd.Flags().StringVar(&sourceFlag, "source", "", "Foreground source: x11 or stdin (default: x11 when $DISPLAY is set)")
	rootCmd.AddCommand(runCmd)
}

// logNavigator stands in for home navigation when there is no desktop to show.
type logNavigator struct {
	logger *zap.Logger
}

func (n logNavigator) GoHome() error {
	n.logger.Info("leaving block screen (no desktop to navigate to)")
	return nil
}

func runRun(a *app, cmd *cobra.Command, args []string) error {
	logger := a.logger
	caps := infra.DetectCapabilities()

	source := sourceFlag
	if source == "" {
		source = sourceStdin
		if caps.ForegroundEvents {
			source = sourceX11
		}
	}

	var (
		fgSource  domain.ForegroundSource
		navigator domain.HomeNavigator = logNavigator{logger: logger}
	)
	switch source {
	case sourceX11:
		if !caps.ForegroundEvents {
			return fmt.Errorf("x11 source needs $DISPLAY")
		}
		fgSource = x11.NewSource(infra.NewProcessInspector(), logger)
		nav := x11.NewNavigator(logger)
		defer nav.Close()
		navigator = nav
	case sourceStdin:
		fgSource = linesource.New(os.Stdin, sourceStdin, logger)
		if caps.ForegroundEvents {
			nav := x11.NewNavigator(logger)
			defer nav.Close()
			navigator = nav
		}
	default:
		return fmt.Errorf("unknown source %q (want %s or %s)", source, sourceX11, sourceStdin)
	}

	if !caps.OverlayAvailable {
		logger.Warn("block screen unavailable, locked apps will not be enforced",
			zap.String("reason", caps.OverlayUnavailable))
		fmt.Fprintf(os.Stderr, "warning: block screen unavailable (%s)\n", caps.OverlayUnavailable)
	}

	if err := a.settings.Watch(); err != nil {
		logger.Warn("config watch disabled", zap.Error(err))
	}

	state := usecase.NewEnforcementState()
	presenter := overlay.NewPresenter(overlay.DefaultConfig(), logger)
	sessions := usecase.NewOverlaySessions(usecase.DefaultHoldConfig(), caps, presenter,
		navigator, state, usecase.SystemClock, logger)
	labels := infra.NewLabelCache()
	monitor := usecase.NewForegroundMonitor(a.registry, a.settings,
		infra.NewLauncherSet(a.settings), labels, sessions, state, logger)
	watcher := daemon.NewWatcher(daemon.DefaultWatcherConfig(), fgSource, monitor, labels, state, logger)

	// Set up graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("applock starting",
		zap.String("version", Version),
		zap.String("source", fgSource.Name()),
		zap.String("registry", a.registry.Path()),
		zap.Bool("overlay_available", caps.OverlayAvailable))

	err := watcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	// A replayed source can end while a block screen is still up; let the
	// user finish with it before exiting.
	if ctrl := sessions.Current(); ctrl != nil {
		select {
		case <-ctrl.Done():
		case <-ctx.Done():
			ctrl.OnExitRequested()
		}
	}
	presenter.Wait(time.Second)

	s := watcher.Stats()
	logger.Info("applock stopped",
		zap.Int64("events", s.Events),
		zap.Int64("sessions_started", s.Started))
	return err
}
