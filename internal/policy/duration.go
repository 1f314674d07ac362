package policy

import (
	"time"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// ResolveEffectiveDuration turns a stored per-app value into the seconds a
// session must be held. The sentinel (and any non-positive value) defers to
// globalDefault; a non-positive globalDefault falls back to the built-in default.
func ResolveEffectiveDuration(stored, globalDefault int32) int32 {
	if stored > 0 {
		return stored
	}
	if globalDefault > 0 {
		return globalDefault
	}
	return domain.DefaultHoldDurationSeconds
}

// DurationMillis converts whole seconds to the millisecond unit the hold
// state machine computes in.
func DurationMillis(seconds int32) int64 {
	return int64(seconds) * int64(time.Second/time.Millisecond)
}
