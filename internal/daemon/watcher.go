// Package daemon implements the foreground watcher that drives enforcement.
package daemon

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
	"github.com/eliteGoblin/focusd/app_lock/internal/usecase"
)

// EventHandler decides what to do with one foreground change.
type EventHandler interface {
	OnForegroundChanged(ev domain.ForegroundEvent) usecase.Admission
}

// LabelRecorder learns display names from foreground events.
type LabelRecorder interface {
	Remember(appID, name string)
}

// WatcherConfig holds watcher daemon configuration.
type WatcherConfig struct {
	StatusInterval time.Duration // How often to log a status line
	EventBuffer    int           // Foreground events queued ahead of the monitor
}

// DefaultWatcherConfig returns default watcher configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		StatusInterval: 5 * time.Minute,
		EventBuffer:    16,
	}
}

// Stats counts what the watcher has seen since start.
type Stats struct {
	Events  int64
	Started int64
	Busy    int64
	Ignored int64
}

// Watcher is the enforcement daemon loop.
// It pumps foreground changes from the source into the monitor, one at a
// time and in arrival order, and periodically logs a status line.
type Watcher struct {
	config  WatcherConfig
	source  domain.ForegroundSource
	monitor EventHandler
	labels  LabelRecorder
	state   *usecase.EnforcementState
	logger  *zap.Logger

	events  atomic.Int64
	started atomic.Int64
	busy    atomic.Int64
	ignored atomic.Int64
}

// NewWatcher creates a new watcher daemon. labels may be nil.
func NewWatcher(
	config WatcherConfig,
	source domain.ForegroundSource,
	monitor EventHandler,
	labels LabelRecorder,
	state *usecase.EnforcementState,
	logger *zap.Logger,
) *Watcher {
	if config.EventBuffer < 0 {
		config.EventBuffer = 0
	}
	return &Watcher{
		config:  config,
		source:  source,
		monitor: monitor,
		labels:  labels,
		state:   state,
		logger:  logger,
	}
}

// Run starts the watcher daemon loop.
// This blocks until context is canceled or the source stops. A source that
// ends cleanly (replay input exhausted) returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	events := make(chan domain.ForegroundEvent, w.config.EventBuffer)
	srcCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	srcErr := make(chan error, 1)
	go func() { srcErr <- w.source.Run(srcCtx, events) }()

	w.logger.Info("watcher daemon started", zap.String("source", w.source.Name()))

	statusTicker := time.NewTicker(w.config.StatusInterval)
	defer statusTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher daemon stopping")
			return ctx.Err()

		case ev := <-events:
			w.handle(ev)

		case err := <-srcErr:
			w.drain(events)
			if err != nil {
				w.logger.Error("foreground source failed",
					zap.String("source", w.source.Name()), zap.Error(err))
				return err
			}
			w.logger.Info("foreground source finished", zap.String("source", w.source.Name()))
			return nil

		case <-statusTicker.C:
			w.logStatus()
		}
	}
}

func (w *Watcher) handle(ev domain.ForegroundEvent) {
	w.events.Add(1)
	if w.labels != nil {
		w.labels.Remember(ev.AppID, ev.DisplayName)
	}

	switch w.monitor.OnForegroundChanged(ev) {
	case usecase.AdmitStart:
		w.started.Add(1)
	case usecase.AdmitBusy:
		w.busy.Add(1)
	default:
		w.ignored.Add(1)
	}
}

// drain handles events the source queued before it returned.
func (w *Watcher) drain(events <-chan domain.ForegroundEvent) {
	for {
		select {
		case ev := <-events:
			w.handle(ev)
		default:
			return
		}
	}
}

func (w *Watcher) logStatus() {
	snap := w.state.Snapshot()
	s := w.Stats()
	w.logger.Info("watcher status",
		zap.Int64("events", s.Events),
		zap.Int64("sessions_started", s.Started),
		zap.Int64("dropped_busy", s.Busy),
		zap.Bool("overlay_active", snap.OverlayActive),
		zap.String("last_unlocked", snap.LastUnlockedAppID))
}

// Stats returns the counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Events:  w.events.Load(),
		Started: w.started.Load(),
		Busy:    w.busy.Load(),
		Ignored: w.ignored.Load(),
	}
}
