package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy of the enforcement core. All of them are handled locally;
// enforcement degrades to "not enforced" instead of failing the host.
var (
	// ErrStorageUnavailable means the registry could not be read or written.
	ErrStorageUnavailable = errors.New("locked app storage unavailable")

	// ErrPresentationDenied means the block screen surface could not be created.
	ErrPresentationDenied = errors.New("overlay presentation denied")

	// ErrUnknownApp means an identifier has no resolvable display name.
	ErrUnknownApp = errors.New("unknown application identifier")

	// ErrSessionActive means a block screen is already being presented.
	ErrSessionActive = errors.New("hold session already active")

	// ErrKeyExists means a prefs key was already stored.
	ErrKeyExists = errors.New("prefs key already exists")
)

// LockedAppRegistry is the persisted appID -> hold duration mapping.
// An app is locked iff it has an entry, whatever the duration value.
// Every mutation is durable before the call returns.
type LockedAppRegistry interface {
	// SetDuration inserts or overwrites the entry. seconds may be DefaultDurationSentinel.
	SetDuration(appID string, seconds int32) error

	// Remove deletes the entry. Removing an absent app succeeds.
	Remove(appID string) error

	// IsLocked reports whether an entry exists.
	IsLocked(appID string) (bool, error)

	// GetDuration returns the stored value, or DefaultDurationSentinel if absent.
	GetDuration(appID string) (int32, error)

	// List returns all entries sorted by app ID.
	List() ([]LockedAppEntry, error)

	// Path returns where the registry is persisted (for status output and tests).
	Path() string
}

// SettingsProvider returns the current settings values.
type SettingsProvider interface {
	Current() Settings
}

// HoldInput receives raw input forwarded by the presenter.
type HoldInput interface {
	OnPressStart()
	OnPressEnd()
	OnExitRequested()

	// Abort ends the session without unlocking or navigating when the
	// surface failed after Present returned.
	Abort(cause error)
}

// OverlayPresenter supplies the full-screen block surface and feedback.
// Implementations must not block and must not call back into HoldInput
// synchronously from UpdateCountdown, Vibrate or Teardown.
type OverlayPresenter interface {
	// Present creates the block screen. An error means nothing is on screen.
	Present(req OverlayRequest, input HoldInput) error

	// UpdateCountdown refreshes the remaining seconds and progress in [0,1].
	UpdateCountdown(remainingSeconds int64, progress float64)

	// Vibrate gives haptic (or equivalent) feedback for d.
	Vibrate(d time.Duration)

	// Teardown removes the block screen.
	Teardown()
}

// LauncherDetector answers whether an identifier is the host's home surface.
// It is a pure query.
type LauncherDetector interface {
	IsLauncher(appID string) bool
}

// AppLabeler resolves a human-readable name for an application.
type AppLabeler interface {
	// Label returns ErrUnknownApp when no name can be resolved.
	Label(appID string) (string, error)
}

// HomeNavigator brings the host's home/launcher surface to the front.
type HomeNavigator interface {
	GoHome() error
}

// ForegroundSource delivers foreground-change notifications.
type ForegroundSource interface {
	// Run emits events until ctx is canceled or the source fails.
	// Implementations must not close out.
	Run(ctx context.Context, out chan<- ForegroundEvent) error

	// Name identifies the source for logs ("x11", "stdin").
	Name() string
}

// ProcessInspector resolves process metadata.
type ProcessInspector interface {
	// NameByPID returns the process name used as the application identifier.
	NameByPID(pid int) (string, error)
}

// KeyProvider abstracts the source of encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key. It fails with ErrKeyExists
	// rather than replace a key that already encrypts data.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}

// AutostartManager registers the daemon to start with the desktop session.
type AutostartManager interface {
	// Install writes the autostart entry for execPath.
	Install(execPath string) error

	// Uninstall removes the autostart entry. Removing a missing entry succeeds.
	Uninstall() error

	// IsInstalled checks if the entry exists.
	IsInstalled() bool

	// NeedsUpdate reports whether an installed entry differs from the one
	// Install would write for execPath.
	NeedsUpdate(execPath string) bool

	// Path returns the entry file path.
	Path() string
}
