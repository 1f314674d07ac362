package infra

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// XDG autostart entry. The block screen needs a terminal, so the daemon is
// started inside one rather than as a background service.
const autostartTemplate = `[Desktop Entry]
Type=Application
Name=App Lock
Comment=Hold-to-unlock block screen for locked applications
Exec={{.Terminal}} -e {{.ExecutablePath}} run
Terminal=false
NoDisplay=true
X-GNOME-Autostart-enabled=true
`

const (
	autostartFileName = "applock.desktop"

	// DefaultTerminal is the Debian alternatives name for the preferred terminal.
	DefaultTerminal = "x-terminal-emulator"
)

type autostartEntry struct {
	Terminal       string
	ExecutablePath string
}

// AutostartManagerImpl implements domain.AutostartManager for both modes.
type AutostartManagerImpl struct {
	mode     ExecMode
	terminal string
	dir      string
	path     string
}

// NewAutostartManager creates a manager based on execution mode. System mode
// installs for every user under /etc/xdg/autostart, user mode next to the
// user's config directory.
func NewAutostartManager(config *ExecModeConfig, terminal string) *AutostartManagerImpl {
	dir := filepath.Join(filepath.Dir(config.ConfigDir), "autostart")
	if config.Mode == ExecModeSystem {
		dir = "/etc/xdg/autostart"
	}
	return NewAutostartManagerWithDir(config.Mode, dir, terminal)
}

// NewAutostartManagerWithDir creates a manager writing into dir.
func NewAutostartManagerWithDir(mode ExecMode, dir, terminal string) *AutostartManagerImpl {
	if terminal == "" {
		terminal = DefaultTerminal
	}
	return &AutostartManagerImpl{
		mode:     mode,
		terminal: terminal,
		dir:      dir,
		path:     filepath.Join(dir, autostartFileName),
	}
}

func (m *AutostartManagerImpl) generateEntry(execPath string) ([]byte, error) {
	tmpl, err := template.New("autostart").Parse(autostartTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse autostart template: %w", err)
	}

	var buf bytes.Buffer
	entry := autostartEntry{
		Terminal:       quoteExecArg(m.terminal),
		ExecutablePath: quoteExecArg(execPath),
	}
	if err := tmpl.Execute(&buf, entry); err != nil {
		return nil, fmt.Errorf("failed to execute autostart template: %w", err)
	}
	return buf.Bytes(), nil
}

// Install writes the entry. It takes effect at the next login.
func (m *AutostartManagerImpl) Install(execPath string) error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return err
	}

	content, err := m.generateEntry(execPath)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, content, 0644)
}

// Uninstall removes the entry.
func (m *AutostartManagerImpl) Uninstall() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// IsInstalled checks if the entry is present.
func (m *AutostartManagerImpl) IsInstalled() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// NeedsUpdate checks if the entry exists but has different content than expected.
func (m *AutostartManagerImpl) NeedsUpdate(execPath string) bool {
	if !m.IsInstalled() {
		return false
	}

	current, err := os.ReadFile(m.path)
	if err != nil {
		return true
	}
	expected, err := m.generateEntry(execPath)
	if err != nil {
		return true
	}
	return !bytes.Equal(current, expected)
}

// Path returns the entry file path.
func (m *AutostartManagerImpl) Path() string {
	return m.path
}

// Mode returns the execution mode the manager was built for.
func (m *AutostartManagerImpl) Mode() ExecMode {
	return m.mode
}

// quoteExecArg quotes an Exec key argument that contains reserved characters.
func quoteExecArg(arg string) string {
	if !strings.ContainsAny(arg, " \t\"'\\$`") {
		return arg
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(arg) + `"`
}

// Ensure AutostartManagerImpl implements domain.AutostartManager.
var _ domain.AutostartManager = (*AutostartManagerImpl)(nil)
