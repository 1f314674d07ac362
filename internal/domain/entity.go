// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// DefaultDurationSentinel marks a locked app that uses the global default hold duration.
const DefaultDurationSentinel int32 = -1

// Settings defaults, mirrored by the config layer.
const (
	DefaultHoldDurationSeconds int32 = 5
	DefaultDailyGoalMinutes    int32 = 10
)

// UnknownAppLabel is shown when an application has no resolvable display name.
const UnknownAppLabel = "this app"

// LockedAppEntry is one row of the locked-app registry.
type LockedAppEntry struct {
	AppID               string `json:"app_id" yaml:"app_id"`
	HoldDurationSeconds int32  `json:"hold_duration_seconds" yaml:"hold_duration_seconds"`
}

// UsesDefault reports whether the entry defers to the global default duration.
func (e LockedAppEntry) UsesDefault() bool {
	return e.HoldDurationSeconds == DefaultDurationSentinel
}

// Settings are the values produced by the settings surface.
// The core only reads them.
type Settings struct {
	OverlayEnabled             bool
	DefaultHoldDurationSeconds int32
	DailyGoalMinutes           int32 // Informational, shown on the block screen
	LockNewlyInstalled         bool
	GracePolicy                string
	LauncherIDs                []string
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{
		OverlayEnabled:             true,
		DefaultHoldDurationSeconds: DefaultHoldDurationSeconds,
		DailyGoalMinutes:           DefaultDailyGoalMinutes,
		LockNewlyInstalled:         true,
		GracePolicy:                "keep_through_launcher",
		LauncherIDs:                []string{DesktopAppID},
	}
}

// DesktopAppID identifies the bare desktop (no focused application window).
const DesktopAppID = "desktop"

// ForegroundEvent is one foreground-change notification from the host.
type ForegroundEvent struct {
	AppID       string
	DisplayName string // Optional hint; empty when the source has none
	At          time.Time
}

// SessionState is the state of one hold-to-unlock session.
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateHolding   SessionState = "holding"
	StateCancelled SessionState = "cancelled" // Transient, always re-enters idle
	StateCompleted SessionState = "completed"
	StateDismissed SessionState = "dismissed"
)

// IsTerminal reports whether no further transitions leave this state.
func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateDismissed
}

// HoldSession describes one block-screen presentation.
type HoldSession struct {
	ID                     string
	AppID                  string
	DisplayName            string
	RequiredDurationMillis int64
	State                  SessionState
	StartTimestamp         *time.Time // Set while holding
}

// OverlayRequest is what the presenter needs to put a block screen up.
type OverlayRequest struct {
	SessionID               string
	AppID                   string
	DisplayName             string
	RequiredDurationSeconds int32
	DailyGoalMinutes        int32
}

// Capabilities are resolved once at startup instead of probing the host per call.
type Capabilities struct {
	OverlayAvailable   bool   // A presentation surface can be created
	ForegroundEvents   bool   // The host can notify foreground changes
	DisplayServer      string // "x11" or ""
	OverlayUnavailable string // Reason when OverlayAvailable is false
}
