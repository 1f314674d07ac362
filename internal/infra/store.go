package infra

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// Registry backends selectable through store.backend.
const (
	BackendFile      = "file"
	BackendEncrypted = "encrypted"
)

// StoreConfig selects and locates the locked app registry.
type StoreConfig struct {
	Backend string
	DataDir string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenRegistry opens the configured backend. The returned closer must be
// closed when the registry is no longer used.
func OpenRegistry(cfg StoreConfig, logger *zap.Logger) (domain.LockedAppRegistry, io.Closer, error) {
	switch cfg.Backend {
	case "", BackendFile:
		reg := NewFileLockedAppRegistry(cfg.DataDir)
		logger.Debug("using file registry", zap.String("path", reg.Path()))
		return reg, nopCloser{}, nil

	case BackendEncrypted:
		key, err := EnsureKey(NewFileKeyProvider(cfg.DataDir))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load prefs key: %w", err)
		}
		reg, err := NewEncryptedLockedAppRegistry(cfg.DataDir, key)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("using encrypted registry", zap.String("path", reg.Path()))
		return reg, reg, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q (want %q or %q)", cfg.Backend, BackendFile, BackendEncrypted)
	}
}
