package infra

import (
	"os"
	"os/user"
	"path/filepath"
)

// ExecMode represents the execution mode of the application.
type ExecMode string

const (
	// ExecModeUser runs inside a desktop user's session
	ExecModeUser ExecMode = "user"
	// ExecModeSystem runs as root and keeps its state system-wide
	ExecModeSystem ExecMode = "system"
)

const appDirName = "applock"

// ExecModeConfig holds paths based on execution mode.
type ExecModeConfig struct {
	Mode       ExecMode
	DataDir    string // Registry, key and log file
	ConfigDir  string // config.toml
	ConfigPath string // Full path to config.toml
	LogPath    string // Daemon log file
	IsRoot     bool
}

// DetectExecMode determines the paths based on effective UID and the XDG
// base directory variables.
func DetectExecMode() *ExecModeConfig {
	return detectExecMode(os.Geteuid(), GetRealUserHome(), os.Getenv)
}

func detectExecMode(euid int, home string, getenv func(string) string) *ExecModeConfig {
	if euid == 0 {
		return newExecModeConfig(ExecModeSystem,
			filepath.Join("/var/lib", appDirName),
			filepath.Join("/etc", appDirName))
	}

	dataHome := getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	configHome := getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	return newExecModeConfig(ExecModeUser,
		filepath.Join(dataHome, appDirName),
		filepath.Join(configHome, appDirName))
}

func newExecModeConfig(mode ExecMode, dataDir, configDir string) *ExecModeConfig {
	return &ExecModeConfig{
		Mode:       mode,
		DataDir:    dataDir,
		ConfigDir:  configDir,
		ConfigPath: filepath.Join(configDir, "config.toml"),
		LogPath:    filepath.Join(dataDir, "applock.log"),
		IsRoot:     mode == ExecModeSystem,
	}
}

// WithDataDir returns a copy whose data and log paths live under dir.
func (c *ExecModeConfig) WithDataDir(dir string) *ExecModeConfig {
	out := *c
	out.DataDir = dir
	out.LogPath = filepath.Join(dir, "applock.log")
	return &out
}

// String returns a human-readable description of the mode.
func (m ExecMode) String() string {
	switch m {
	case ExecModeSystem:
		return "system (root)"
	case ExecModeUser:
		return "user (desktop session)"
	default:
		return "unknown"
	}
}

// GetRealUserHome returns the real user's home directory, even when running under sudo.
// Under sudo, os.UserHomeDir() returns root's home, so we use SUDO_USER to find the real user.
func GetRealUserHome() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, _ := os.UserHomeDir()
	return home
}
