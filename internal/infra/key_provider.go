package infra

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

const (
	keyFileName = ".prefs.key"
	keySize     = 32 // 256-bit SQLCipher raw key
)

// FileKeyProvider keeps the prefs database key hex-encoded in a hidden 0600
// file next to prefs.db, the same form the SQLCipher DSN takes it in.
type FileKeyProvider struct {
	path string
}

// NewFileKeyProvider creates a FileKeyProvider for the given data directory.
func NewFileKeyProvider(dataDir string) *FileKeyProvider {
	return &FileKeyProvider{path: filepath.Join(dataDir, keyFileName)}
}

// Path returns the key file location.
func (p *FileKeyProvider) Path() string {
	return p.path
}

// GetKey reads and validates the stored key.
func (p *FileKeyProvider) GetKey() ([]byte, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prefs key: %w", err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode prefs key %s: %w", p.path, err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("invalid prefs key size: got %d bytes, want %d", len(key), keySize)
	}
	return key, nil
}

// StoreKey writes key to a temp file and links it into place, so a reader
// never sees a partial key and two first runs cannot both install one.
func (p *FileKeyProvider) StoreKey(key []byte) error {
	if len(key) != keySize {
		return fmt.Errorf("invalid prefs key size: got %d bytes, want %d", len(key), keySize)
	}
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, keyFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp key file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.WriteString(hex.EncodeToString(key) + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write prefs key: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Link(tmpPath, p.path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", p.path, domain.ErrKeyExists)
		}
		return fmt.Errorf("failed to install prefs key: %w", err)
	}
	syncDir(dir)
	return nil
}

// KeyExists checks if the key file exists.
func (p *FileKeyProvider) KeyExists() bool {
	_, err := os.Stat(p.path)
	return err == nil
}

// GenerateKey creates a new random 256-bit key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate prefs key: %w", err)
	}
	return key, nil
}

// EnsureKey returns the stored key, generating one on first use of the
// encrypted backend. If another process stores its key first, that key wins.
func EnsureKey(provider domain.KeyProvider) ([]byte, error) {
	if provider.KeyExists() {
		return provider.GetKey()
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	err = provider.StoreKey(key)
	switch {
	case err == nil:
		return key, nil
	case errors.Is(err, domain.ErrKeyExists):
		return provider.GetKey()
	default:
		return nil, err
	}
}

// Ensure FileKeyProvider implements domain.KeyProvider.
var _ domain.KeyProvider = (*FileKeyProvider)(nil)
