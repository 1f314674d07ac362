package usecase

import (
	"sync"

	"github.com/eliteGoblin/focusd/app_lock/internal/policy"
)

// Admission is the outcome of evaluating one foreground change.
type Admission int

const (
	// AdmitIgnore means no block screen is required.
	AdmitIgnore Admission = iota
	// AdmitStart means the caller now owns the overlay and must start a session.
	AdmitStart
	// AdmitBusy means a block screen was required but one is already up.
	AdmitBusy
)

func (a Admission) String() string {
	switch a {
	case AdmitStart:
		return "start"
	case AdmitBusy:
		return "busy"
	default:
		return "ignore"
	}
}

// StateSnapshot is a consistent copy of EnforcementState.
type StateSnapshot struct {
	LastUnlockedAppID string // Empty means none
	OverlayActive     bool
}

// EnforcementState is the single process-wide record shared by the monitor
// and the hold controller. Both fields are only touched under mu.
type EnforcementState struct {
	mu                sync.Mutex
	lastUnlockedAppID string
	overlayActive     bool
}

// NewEnforcementState returns the default state {none, false}.
func NewEnforcementState() *EnforcementState {
	return &EnforcementState{}
}

// AdmitInput carries everything Admit needs that is read outside the lock.
type AdmitInput struct {
	AppID          string
	IsLauncher     bool
	Locked         bool
	OverlayEnabled bool
	Grace          policy.GracePolicy
}

// Admit runs the grace revocation, the trigger decision and the single-session
// check-and-set as one critical section. AdmitStart sets overlayActive before
// returning, so a concurrent evaluation sees it.
func (s *EnforcementState) Admit(in AdmitInput) Admission {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.Grace.ShouldRevoke(in.AppID, s.lastUnlockedAppID, in.IsLauncher) {
		s.lastUnlockedAppID = ""
	}

	shouldTrigger := in.Locked && in.AppID != s.lastUnlockedAppID && in.OverlayEnabled
	if !shouldTrigger {
		return AdmitIgnore
	}
	if s.overlayActive {
		return AdmitBusy
	}
	s.overlayActive = true
	return AdmitStart
}

// MarkUnlocked records appID as just unlocked.
func (s *EnforcementState) MarkUnlocked(appID string) {
	s.mu.Lock()
	s.lastUnlockedAppID = appID
	s.mu.Unlock()
}

// ReleaseOverlay clears overlayActive. Safe to call more than once.
func (s *EnforcementState) ReleaseOverlay() {
	s.mu.Lock()
	s.overlayActive = false
	s.mu.Unlock()
}

// Snapshot returns both fields read under the same lock.
func (s *EnforcementState) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StateSnapshot{
		LastUnlockedAppID: s.lastUnlockedAppID,
		OverlayActive:     s.overlayActive,
	}
}
