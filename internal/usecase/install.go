package usecase

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// InstallWatcher locks newly installed applications when the
// "lock newly installed apps" setting is on.
type InstallWatcher struct {
	registry domain.LockedAppRegistry
	settings domain.SettingsProvider
	logger   *zap.Logger
}

// NewInstallWatcher creates an install watcher.
func NewInstallWatcher(registry domain.LockedAppRegistry, settings domain.SettingsProvider, logger *zap.Logger) *InstallWatcher {
	return &InstallWatcher{
		registry: registry,
		settings: settings,
		logger:   logger,
	}
}

// OnPackageAdded writes a default entry for appID. Returns true if the app
// was locked.
func (w *InstallWatcher) OnPackageAdded(appID string) (bool, error) {
	if appID == "" {
		return false, nil
	}

	settings := w.settings.Current()
	if !settings.LockNewlyInstalled {
		w.logger.Debug("auto-lock disabled, ignoring install", zap.String("app", appID))
		return false, nil
	}

	if err := w.registry.SetDuration(appID, settings.DefaultHoldDurationSeconds); err != nil {
		w.logger.Warn("failed to lock newly installed app",
			zap.String("app", appID),
			zap.Error(err))
		return false, err
	}

	w.logger.Info("locked newly installed app",
		zap.String("app", appID),
		zap.Int32("hold_seconds", settings.DefaultHoldDurationSeconds))
	return true, nil
}
