package infra

import (
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// LauncherSet answers launcher queries from the live launcher_ids setting.
type LauncherSet struct {
	settings domain.SettingsProvider
}

// NewLauncherSet creates a detector backed by settings.
func NewLauncherSet(settings domain.SettingsProvider) *LauncherSet {
	return &LauncherSet{settings: settings}
}

// IsLauncher reports whether appID is one of the configured home surfaces.
// Comparison ignores case since WM_CLASS and process names differ in casing.
func (l *LauncherSet) IsLauncher(appID string) bool {
	for _, id := range l.settings.Current().LauncherIDs {
		if strings.EqualFold(id, appID) {
			return true
		}
	}
	return false
}

// LabelCache remembers display names seen on foreground events so that
// later triggers without a name (replayed or CLI-driven) still get one.
type LabelCache struct {
	mu     sync.RWMutex
	labels map[string]string
}

// NewLabelCache creates an empty cache.
func NewLabelCache() *LabelCache {
	return &LabelCache{labels: make(map[string]string)}
}

// Remember records name for appID. Empty names are ignored.
func (c *LabelCache) Remember(appID, name string) {
	if appID == "" || name == "" {
		return
	}
	c.mu.Lock()
	c.labels[appID] = name
	c.mu.Unlock()
}

// Label returns the remembered name or domain.ErrUnknownApp.
func (c *LabelCache) Label(appID string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if name, ok := c.labels[appID]; ok {
		return name, nil
	}
	return "", domain.ErrUnknownApp
}

// DetectCapabilities runs the one-shot capability query for this process.
func DetectCapabilities() domain.Capabilities {
	return detectCapabilities(
		term.IsTerminal(int(os.Stdin.Fd())),
		term.IsTerminal(int(os.Stdout.Fd())),
		os.Getenv,
	)
}

func detectCapabilities(stdinTTY, stdoutTTY bool, getenv func(string) string) domain.Capabilities {
	caps := domain.Capabilities{OverlayAvailable: true}

	switch {
	case !stdoutTTY:
		caps.OverlayAvailable = false
		caps.OverlayUnavailable = "stdout is not a terminal"
	case !stdinTTY && !ttyDeviceAvailable():
		caps.OverlayAvailable = false
		caps.OverlayUnavailable = "no controlling terminal for input"
	}

	if getenv("DISPLAY") != "" {
		caps.DisplayServer = "x11"
		caps.ForegroundEvents = true
	}
	return caps
}

func ttyDeviceAvailable() bool {
	f, err := os.Open("/dev/tty")
	if err != nil {
		return false
	}
	f.Close()
	return true
}

var (
	_ domain.LauncherDetector = (*LauncherSet)(nil)
	_ domain.AppLabeler       = (*LabelCache)(nil)
)
