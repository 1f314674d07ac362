// Package usecase contains application business logic.
package usecase

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
	"github.com/eliteGoblin/focusd/app_lock/internal/policy"
)

// SessionStarter puts a block screen up for an admitted foreground change.
// On error the starter has already released the overlay guard.
type SessionStarter interface {
	Start(req domain.OverlayRequest) error
}

// ForegroundMonitor decides, per foreground-change notification, whether a
// block screen must be presented.
type ForegroundMonitor struct {
	registry domain.LockedAppRegistry
	settings domain.SettingsProvider
	launcher domain.LauncherDetector
	labeler  domain.AppLabeler
	starter  SessionStarter
	state    *EnforcementState
	policies *policy.Registry
	logger   *zap.Logger
}

// NewForegroundMonitor creates a monitor over the shared state.
func NewForegroundMonitor(
	registry domain.LockedAppRegistry,
	settings domain.SettingsProvider,
	launcher domain.LauncherDetector,
	labeler domain.AppLabeler,
	starter SessionStarter,
	state *EnforcementState,
	logger *zap.Logger,
) *ForegroundMonitor {
	return &ForegroundMonitor{
		registry: registry,
		settings: settings,
		launcher: launcher,
		labeler:  labeler,
		starter:  starter,
		state:    state,
		policies: policy.NewRegistry(),
		logger:   logger,
	}
}

// OnForegroundChanged handles one notification. It never mutates the registry.
func (m *ForegroundMonitor) OnForegroundChanged(ev domain.ForegroundEvent) Admission {
	if ev.AppID == "" {
		return AdmitIgnore
	}

	settings := m.settings.Current()
	isLauncher := m.launcher.IsLauncher(ev.AppID)

	locked, err := m.registry.IsLocked(ev.AppID)
	if err != nil {
		// Fail open: a broken store must not lock the host.
		m.logger.Warn("registry read failed, treating app as unlocked",
			zap.String("app", ev.AppID),
			zap.Error(err))
		locked = false
	}

	admission := m.state.Admit(AdmitInput{
		AppID:          ev.AppID,
		IsLauncher:     isLauncher,
		Locked:         locked,
		OverlayEnabled: settings.OverlayEnabled,
		Grace:          m.policies.Resolve(settings.GracePolicy),
	})

	switch admission {
	case AdmitBusy:
		m.logger.Debug("block screen already active, dropping trigger",
			zap.String("app", ev.AppID))
	case AdmitStart:
		m.startSession(ev, settings)
	}

	return admission
}

// startSession runs after Admit has claimed the overlay guard.
func (m *ForegroundMonitor) startSession(ev domain.ForegroundEvent, settings domain.Settings) {
	stored, err := m.registry.GetDuration(ev.AppID)
	if err != nil {
		m.logger.Warn("registry duration read failed, using default",
			zap.String("app", ev.AppID),
			zap.Error(err))
		stored = domain.DefaultDurationSentinel
	}

	req := domain.OverlayRequest{
		SessionID:               uuid.New().String()[:8],
		AppID:                   ev.AppID,
		DisplayName:             m.displayName(ev),
		RequiredDurationSeconds: policy.ResolveEffectiveDuration(stored, settings.DefaultHoldDurationSeconds),
		DailyGoalMinutes:        settings.DailyGoalMinutes,
	}

	m.logger.Info("locked app in foreground, presenting block screen",
		zap.String("app", req.AppID),
		zap.String("session", req.SessionID),
		zap.Int32("hold_seconds", req.RequiredDurationSeconds))

	if err := m.starter.Start(req); err != nil {
		m.logger.Warn("block screen not presented",
			zap.String("app", req.AppID),
			zap.String("session", req.SessionID),
			zap.Error(err))
	}
}

func (m *ForegroundMonitor) displayName(ev domain.ForegroundEvent) string {
	if ev.DisplayName != "" {
		return ev.DisplayName
	}
	name, err := m.labeler.Label(ev.AppID)
	if err != nil || name == "" {
		m.logger.Debug("no display name for app",
			zap.String("app", ev.AppID),
			zap.Error(err))
		return domain.UnknownAppLabel
	}
	return name
}
