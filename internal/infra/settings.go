package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
	"github.com/eliteGoblin/focusd/app_lock/internal/policy"
)

// Configuration keys. Env overrides use the APPLOCK_ prefix with dots
// replaced by underscores (APPLOCK_STORE_BACKEND).
const (
	KeyOverlayEnabled        = "overlay_enabled"
	KeyHoldDuration          = "hold_duration"
	KeyDailyGoal             = "daily_goal"
	KeyNewlyInstalledEnabled = "newly_installed_enabled"
	KeyGracePolicy           = "grace_policy"
	KeyLauncherIDs           = "launcher_ids"
	KeyStoreBackend          = "store.backend"
	KeyStoreDataDir          = "store.data_dir"
	KeyLogLevel              = "log.level"
)

const envPrefix = "APPLOCK"

// DefaultLauncherIDs are the home surfaces of common Linux desktops.
var DefaultLauncherIDs = []string{domain.DesktopAppID, "plasmashell", "xfdesktop", "nautilus-desktop"}

// Config is the full configuration snapshot.
type Config struct {
	Settings domain.Settings
	Store    StoreConfig
	LogLevel string
}

// ViperSettings implements domain.SettingsProvider on a TOML file. The file
// is watched so edits made while the daemon runs apply to the next
// foreground event.
type ViperSettings struct {
	mu             sync.RWMutex
	path           string
	defaultDataDir string
	current        Config
	watcher        *viper.Viper
	logger         *zap.Logger
}

// LoadSettings reads the config file at path. A missing file yields defaults.
func LoadSettings(path, defaultDataDir string, logger *zap.Logger) (*ViperSettings, error) {
	s := &ViperSettings{
		path:           path,
		defaultDataDir: defaultDataDir,
		logger:         logger,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ViperSettings) newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyOverlayEnabled, true)
	v.SetDefault(KeyHoldDuration, domain.DefaultHoldDurationSeconds)
	v.SetDefault(KeyDailyGoal, domain.DefaultDailyGoalMinutes)
	v.SetDefault(KeyNewlyInstalledEnabled, true)
	v.SetDefault(KeyGracePolicy, policy.KeepThroughLauncher)
	v.SetDefault(KeyLauncherIDs, DefaultLauncherIDs)
	v.SetDefault(KeyStoreBackend, BackendFile)
	v.SetDefault(KeyStoreDataDir, s.defaultDataDir)
	v.SetDefault(KeyLogLevel, "info")

	v.SetConfigType("toml")
	v.SetConfigFile(s.path)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func readConfig(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("read config: %w", err)
}

// Reload re-reads the file and swaps the snapshot.
func (s *ViperSettings) Reload() error {
	v := s.newViper()
	if err := readConfig(v); err != nil {
		return err
	}

	cfg := Config{
		Settings: domain.Settings{
			OverlayEnabled:             v.GetBool(KeyOverlayEnabled),
			DefaultHoldDurationSeconds: v.GetInt32(KeyHoldDuration),
			DailyGoalMinutes:           v.GetInt32(KeyDailyGoal),
			LockNewlyInstalled:         v.GetBool(KeyNewlyInstalledEnabled),
			GracePolicy:                v.GetString(KeyGracePolicy),
			LauncherIDs:                v.GetStringSlice(KeyLauncherIDs),
		},
		Store: StoreConfig{
			Backend: v.GetString(KeyStoreBackend),
			DataDir: v.GetString(KeyStoreDataDir),
		},
		LogLevel: v.GetString(KeyLogLevel),
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return nil
}

// Current returns the enforcement settings.
func (s *ViperSettings) Current() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.current.Settings
	out.LauncherIDs = append([]string(nil), out.LauncherIDs...)
	return out
}

// Config returns the full configuration snapshot.
func (s *ViperSettings) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetLogger replaces the logger used for reload messages.
func (s *ViperSettings) SetLogger(logger *zap.Logger) {
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

// Path returns the config file path.
func (s *ViperSettings) Path() string {
	return s.path
}

// Watch reloads the snapshot whenever the file changes.
func (s *ViperSettings) Watch() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	v := s.newViper()
	_ = readConfig(v)
	v.OnConfigChange(func(e fsnotify.Event) {
		s.mu.RLock()
		logger := s.logger
		s.mu.RUnlock()
		if err := s.Reload(); err != nil {
			logger.Warn("config reload failed, keeping previous settings", zap.Error(err))
			return
		}
		logger.Info("config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()
	s.watcher = v
	return nil
}

// Keys lists the settable keys.
func Keys() []string {
	keys := []string{
		KeyOverlayEnabled, KeyHoldDuration, KeyDailyGoal, KeyNewlyInstalledEnabled,
		KeyGracePolicy, KeyLauncherIDs, KeyStoreBackend, KeyStoreDataDir, KeyLogLevel,
	}
	sort.Strings(keys)
	return keys
}

// Set validates value for key, persists it to the file and reloads.
func (s *ViperSettings) Set(key, value string) error {
	parsed, err := parseSetting(key, value)
	if err != nil {
		return err
	}

	v := s.newViper()
	if err := readConfig(v); err != nil {
		return err
	}
	v.Set(key, parsed)

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return s.Reload()
}

func parseSetting(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case KeyOverlayEnabled, KeyNewlyInstalledEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		return b, nil

	case KeyHoldDuration:
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s: expected a positive number of seconds, got %q", key, value)
		}
		return int32(n), nil

	case KeyDailyGoal:
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s: expected a non-negative number of minutes, got %q", key, value)
		}
		return int32(n), nil

	case KeyGracePolicy:
		if err := policy.NewRegistry().Validate(value); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return value, nil

	case KeyLauncherIDs:
		var ids []string
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("%s: expected a comma-separated list", key)
		}
		return ids, nil

	case KeyStoreBackend:
		if value != BackendFile && value != BackendEncrypted {
			return nil, fmt.Errorf("%s: expected %q or %q, got %q", key, BackendFile, BackendEncrypted, value)
		}
		return value, nil

	case KeyStoreDataDir:
		if !filepath.IsAbs(value) {
			return nil, fmt.Errorf("%s: expected an absolute path, got %q", key, value)
		}
		return value, nil

	case KeyLogLevel:
		if _, err := zapcore.ParseLevel(value); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return value, nil

	default:
		return nil, fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
}

var _ domain.SettingsProvider = (*ViperSettings)(nil)
