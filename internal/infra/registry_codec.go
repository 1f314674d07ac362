package infra

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ucarion/jcs"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

const (
	// prefsNamespace names the preference store that holds the lock table.
	prefsNamespace = "LockedAppsPrefs"

	// lockedAppsKey is the single key the whole lock table is stored under.
	lockedAppsKey = "locked_app_set"
)

// lockedAppSet is the in-memory form of the persisted blob.
type lockedAppSet map[string]int32

// canonicalJSON renders v as RFC 8785 canonical JSON so that equal tables
// always serialize to identical bytes.
func canonicalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	return jcs.Format(generic)
}

func encodeLockedApps(set lockedAppSet) (string, error) {
	if set == nil {
		set = lockedAppSet{}
	}
	return canonicalJSON(set)
}

func decodeLockedApps(blob string) (lockedAppSet, error) {
	set := lockedAppSet{}
	if blob == "" {
		return set, nil
	}
	if err := json.Unmarshal([]byte(blob), &set); err != nil {
		return nil, fmt.Errorf("decode locked app set: %w", err)
	}
	return set, nil
}

// entries returns the table as sorted domain entries.
func (s lockedAppSet) entries() []domain.LockedAppEntry {
	out := make([]domain.LockedAppEntry, 0, len(s))
	for id, seconds := range s {
		out = append(out, domain.LockedAppEntry{AppID: id, HoldDurationSeconds: seconds})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppID < out[j].AppID })
	return out
}

// storageErr tags err as a storage failure while keeping the cause.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
