package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

const lockedAppsFileName = prefsNamespace + ".json"

// prefsDocument is the on-disk layout of the file backend.
type prefsDocument struct {
	LockedApps lockedAppSet `json:"locked_app_set"`
}

// FileLockedAppRegistry implements domain.LockedAppRegistry as a single JSON
// document. Every mutation is a read-modify-write under an exclusive flock,
// so the CLI and a running daemon never lose each other's updates.
type FileLockedAppRegistry struct {
	mu   sync.Mutex
	path string
}

// NewFileLockedAppRegistry creates a registry stored in dataDir.
func NewFileLockedAppRegistry(dataDir string) *FileLockedAppRegistry {
	return NewFileLockedAppRegistryWithPath(filepath.Join(dataDir, lockedAppsFileName))
}

// NewFileLockedAppRegistryWithPath creates a registry at a specific path (for testing).
func NewFileLockedAppRegistryWithPath(path string) *FileLockedAppRegistry {
	return &FileLockedAppRegistry{path: path}
}

// Path returns the registry file path.
func (r *FileLockedAppRegistry) Path() string {
	return r.path
}

// SetDuration inserts or overwrites the entry for appID.
func (r *FileLockedAppRegistry) SetDuration(appID string, seconds int32) error {
	return r.update(func(set lockedAppSet) { set[appID] = seconds })
}

// Remove deletes the entry for appID. Removing an absent app is a no-op write.
func (r *FileLockedAppRegistry) Remove(appID string) error {
	return r.update(func(set lockedAppSet) { delete(set, appID) })
}

// IsLocked reports whether appID has an entry.
func (r *FileLockedAppRegistry) IsLocked(appID string) (bool, error) {
	set, err := r.snapshot()
	if err != nil {
		return false, err
	}
	_, ok := set[appID]
	return ok, nil
}

// GetDuration returns the stored value or the default sentinel.
func (r *FileLockedAppRegistry) GetDuration(appID string) (int32, error) {
	set, err := r.snapshot()
	if err != nil {
		return domain.DefaultDurationSentinel, err
	}
	seconds, ok := set[appID]
	if !ok {
		return domain.DefaultDurationSentinel, nil
	}
	return seconds, nil
}

// List returns all entries sorted by app ID.
func (r *FileLockedAppRegistry) List() ([]domain.LockedAppEntry, error) {
	set, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	return set.entries(), nil
}

func (r *FileLockedAppRegistry) snapshot() (lockedAppSet, error) {
	var set lockedAppSet
	err := r.withLock(syscall.LOCK_SH, func() error {
		var err error
		set, err = r.load()
		return err
	})
	return set, err
}

func (r *FileLockedAppRegistry) update(mutate func(lockedAppSet)) error {
	return r.withLock(syscall.LOCK_EX, func() error {
		set, err := r.load()
		if err != nil {
			return err
		}
		mutate(set)
		return r.atomicWrite(set)
	})
}

// withLock serializes access within the process (mu) and across processes (flock).
func (r *FileLockedAppRegistry) withLock(how int, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return storageErr("create registry directory", err)
	}
	lockFile, err := os.OpenFile(r.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return storageErr("open lock file", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), how); err != nil {
		return storageErr("acquire lock", err)
	}
	defer func() { _ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN) }()

	return fn()
}

// load reads the document. A missing file is an empty registry.
func (r *FileLockedAppRegistry) load() (lockedAppSet, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return lockedAppSet{}, nil
		}
		return nil, storageErr("read registry", err)
	}

	var doc prefsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, storageErr("parse registry", err)
	}
	if doc.LockedApps == nil {
		doc.LockedApps = lockedAppSet{}
	}
	return doc.LockedApps, nil
}

// atomicWrite writes the document to a temp file, fsyncs it and renames it
// over the registry so readers see either the old or the new table.
func (r *FileLockedAppRegistry) atomicWrite(set lockedAppSet) error {
	data, err := canonicalJSON(prefsDocument{LockedApps: set})
	if err != nil {
		return storageErr("encode registry", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", r.path, os.Getpid())
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return storageErr("create temp file", err)
	}
	if _, err := tmp.WriteString(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return storageErr("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return storageErr("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return storageErr("close temp file", err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return storageErr("rename registry", err)
	}
	syncDir(filepath.Dir(r.path))
	return nil
}

// syncDir makes the rename durable. Failure only weakens crash safety.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}

// Ensure FileLockedAppRegistry implements domain.LockedAppRegistry.
var _ domain.LockedAppRegistry = (*FileLockedAppRegistry)(nil)
