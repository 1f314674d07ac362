package infra

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	// Ensure sqlcipher driver is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

const (
	prefsDBName = "prefs.db"
)

// EncryptedLockedAppRegistry implements domain.LockedAppRegistry on top of
// a SQLCipher encrypted SQLite database. The lock table is kept as one JSON
// blob under (LockedAppsPrefs, locked_app_set), the same layout the file
// backend uses, so export and import behave identically for both.
type EncryptedLockedAppRegistry struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// NewEncryptedLockedAppRegistry opens (or creates) the encrypted prefs database.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewEncryptedLockedAppRegistry(dataDir string, key []byte) (*EncryptedLockedAppRegistry, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, prefsDBName)
	keyHex := hex.EncodeToString(key)

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// Ping forces the key check; a wrong key fails here, not on first use.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	reg := &EncryptedLockedAppRegistry{
		db:     db,
		dbPath: dbPath,
	}

	if err := reg.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return reg, nil
}

func (r *EncryptedLockedAppRegistry) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prefs (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (namespace, key)
	);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (r *EncryptedLockedAppRegistry) Path() string {
	return r.dbPath
}

// SetDuration inserts or overwrites the entry for appID.
func (r *EncryptedLockedAppRegistry) SetDuration(appID string, seconds int32) error {
	return r.update(func(set lockedAppSet) { set[appID] = seconds })
}

// Remove deletes the entry for appID.
func (r *EncryptedLockedAppRegistry) Remove(appID string) error {
	return r.update(func(set lockedAppSet) { delete(set, appID) })
}

// IsLocked reports whether appID has an entry.
func (r *EncryptedLockedAppRegistry) IsLocked(appID string) (bool, error) {
	set, err := r.snapshot()
	if err != nil {
		return false, err
	}
	_, ok := set[appID]
	return ok, nil
}

// GetDuration returns the stored value or the default sentinel.
func (r *EncryptedLockedAppRegistry) GetDuration(appID string) (int32, error) {
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
func (r *EncryptedLockedAppRegistry) List() ([]domain.LockedAppEntry, error) {
	set, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	return set.entries(), nil
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func (r *EncryptedLockedAppRegistry) load(q queryRower) (lockedAppSet, error) {
	var blob string
	err := q.QueryRow(`SELECT value FROM prefs WHERE namespace = ? AND key = ?`,
		prefsNamespace, lockedAppsKey).Scan(&blob)
	if err == sql.ErrNoRows {
		return lockedAppSet{}, nil
	}
	if err != nil {
		return nil, storageErr("read prefs", err)
	}
	set, err := decodeLockedApps(blob)
	if err != nil {
		return nil, storageErr("parse prefs", err)
	}
	return set, nil
}

func (r *EncryptedLockedAppRegistry) snapshot() (lockedAppSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(r.db)
}

// update runs the read-modify-write inside one transaction.
func (r *EncryptedLockedAppRegistry) update(mutate func(lockedAppSet)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	set, err := r.load(tx)
	if err != nil {
		return err
	}
	mutate(set)

	blob, err := encodeLockedApps(set)
	if err != nil {
		return storageErr("encode prefs", err)
	}
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO prefs (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)`,
		prefsNamespace, lockedAppsKey, blob, time.Now().Unix(),
	)
	if err != nil {
		return storageErr("write prefs", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit prefs", err)
	}
	return nil
}

// Close releases the database connection.
func (r *EncryptedLockedAppRegistry) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ensure EncryptedLockedAppRegistry implements domain.LockedAppRegistry.
var _ domain.LockedAppRegistry = (*EncryptedLockedAppRegistry)(nil)
