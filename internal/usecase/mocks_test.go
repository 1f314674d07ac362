package usecase

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// mockRegistry implements domain.LockedAppRegistry for testing
type mockRegistry struct {
	mu      sync.Mutex
	entries map[string]int32
	readErr error
	setErr  error
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{entries: make(map[string]int32)}
}

func (m *mockRegistry) SetDuration(appID string, seconds int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[appID] = seconds
	return nil
}

func (m *mockRegistry) Remove(appID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, appID)
	return nil
}

func (m *mockRegistry) IsLocked(appID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return false, m.readErr
	}
	_, ok := m.entries[appID]
	return ok, nil
}

func (m *mockRegistry) GetDuration(appID string) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, m.readErr
	}
	if d, ok := m.entries[appID]; ok {
		return d, nil
	}
	return domain.DefaultDurationSentinel, nil
}

func (m *mockRegistry) List() ([]domain.LockedAppEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.LockedAppEntry, 0, len(m.entries))
	for id, d := range m.entries {
		out = append(out, domain.LockedAppEntry{AppID: id, HoldDurationSeconds: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppID < out[j].AppID })
	return out, nil
}

func (m *mockRegistry) Path() string {
	return "/tmp/mock-registry"
}

// mockSettings implements domain.SettingsProvider for testing
type mockSettings struct {
	mu       sync.Mutex
	settings domain.Settings
}

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultSettings()}
}

func (m *mockSettings) Current() domain.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

func (m *mockSettings) update(fn func(s *domain.Settings)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.settings)
}

// mockLauncher implements domain.LauncherDetector for testing
type mockLauncher struct{}

func (mockLauncher) IsLauncher(appID string) bool {
	return appID == domain.DesktopAppID
}

// mockLabeler implements domain.AppLabeler for testing
type mockLabeler struct {
	labels map[string]string
}

func (m *mockLabeler) Label(appID string) (string, error) {
	if name, ok := m.labels[appID]; ok {
		return name, nil
	}
	return "", domain.ErrUnknownApp
}

// mockStarter implements SessionStarter for testing
type mockStarter struct {
	mu       sync.Mutex
	requests []domain.OverlayRequest
	state    *EnforcementState
	err      error
}

func (m *mockStarter) Start(req domain.OverlayRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		m.state.ReleaseOverlay()
		return m.err
	}
	return nil
}

func (m *mockStarter) started() []domain.OverlayRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OverlayRequest(nil), m.requests...)
}

// countdown is one UpdateCountdown call
type countdown struct {
	remaining int64
	progress  float64
}

// mockPresenter implements domain.OverlayPresenter for testing
type mockPresenter struct {
	mu         sync.Mutex
	presentErr error
	panicMsg   string
	presented  []domain.OverlayRequest
	input      domain.HoldInput
	countdowns []countdown
	pulses     []time.Duration
	teardowns  int
}

func (m *mockPresenter) Present(req domain.OverlayRequest, input domain.HoldInput) error {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.presentErr != nil {
		return m.presentErr
	}
	m.presented = append(m.presented, req)
	m.input = input
	return nil
}

func (m *mockPresenter) UpdateCountdown(remainingSeconds int64, progress float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countdowns = append(m.countdowns, countdown{remainingSeconds, progress})
}

func (m *mockPresenter) Vibrate(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulses = append(m.pulses, d)
}

func (m *mockPresenter) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardowns++
}

func (m *mockPresenter) lastCountdown() countdown {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.countdowns) == 0 {
		return countdown{}
	}
	return m.countdowns[len(m.countdowns)-1]
}

func (m *mockPresenter) teardownCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teardowns
}

// mockNavigator implements domain.HomeNavigator for testing
type mockNavigator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockNavigator) GoHome() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

func (m *mockNavigator) homeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeClock is a manually advanced Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errStorage = errors.New("disk on fire")
