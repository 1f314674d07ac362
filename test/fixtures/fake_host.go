// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"context"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// StaticSettings is a SettingsProvider whose values tests change directly.
type StaticSettings struct {
	mu       sync.Mutex
	settings domain.Settings
}

// NewStaticSettings starts from the fresh-install defaults.
func NewStaticSettings() *StaticSettings {
	return &StaticSettings{settings: domain.DefaultSettings()}
}

// Current returns a copy of the settings.
func (s *StaticSettings) Current() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.settings
	out.LauncherIDs = append([]string(nil), s.settings.LauncherIDs...)
	return out
}

// Update mutates the settings under the lock.
func (s *StaticSettings) Update(fn func(*domain.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
}

// RecordingPresenter is an OverlayPresenter that keeps every request and
// exposes the input handle of the latest one, so tests can press and release.
type RecordingPresenter struct {
	mu        sync.Mutex
	requests  []domain.OverlayRequest
	input     domain.HoldInput
	remaining int64
	progress  float64
	pulses    []time.Duration
	teardowns int
}

// Present records req and input.
func (p *RecordingPresenter) Present(req domain.OverlayRequest, input domain.HoldInput) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	p.input = input
	return nil
}

// UpdateCountdown keeps the last values.
func (p *RecordingPresenter) UpdateCountdown(remainingSeconds int64, progress float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remaining = remainingSeconds
	p.progress = progress
}

// Vibrate records the pulse.
func (p *RecordingPresenter) Vibrate(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pulses = append(p.pulses, d)
}

// Teardown counts teardowns.
func (p *RecordingPresenter) Teardown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardowns++
}

// Requests returns a copy of every presented request.
func (p *RecordingPresenter) Requests() []domain.OverlayRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OverlayRequest(nil), p.requests...)
}

// Input returns the input handle of the latest presentation, or nil.
func (p *RecordingPresenter) Input() domain.HoldInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input
}

// Countdown returns the last remaining seconds and progress shown.
func (p *RecordingPresenter) Countdown() (int64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remaining, p.progress
}

// Pulses returns a copy of the vibration durations.
func (p *RecordingPresenter) Pulses() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.pulses...)
}

// Teardowns returns how many times the surface was removed.
func (p *RecordingPresenter) Teardowns() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.teardowns
}

// RecordingNavigator counts GoHome calls.
type RecordingNavigator struct {
	mu    sync.Mutex
	calls int
}

// GoHome records the call.
func (n *RecordingNavigator) GoHome() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return nil
}

// Calls returns the number of GoHome calls.
func (n *RecordingNavigator) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

// ManualClock only moves when Advance is called.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock starts at a fixed instant.
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ScriptedSource is a ForegroundSource fed by the test through Emit.
// Run returns nil once Close is called and every queued event was delivered.
type ScriptedSource struct {
	events chan domain.ForegroundEvent
	once   sync.Once
}

// NewScriptedSource creates a source with room for buffer pending events.
func NewScriptedSource(buffer int) *ScriptedSource {
	return &ScriptedSource{events: make(chan domain.ForegroundEvent, buffer)}
}

// Name identifies the source in logs.
func (s *ScriptedSource) Name() string {
	return "scripted"
}

// Emit queues a foreground change for appID.
func (s *ScriptedSource) Emit(appID, displayName string) {
	s.events <- domain.ForegroundEvent{AppID: appID, DisplayName: displayName, At: time.Now()}
}

// Close ends the script.
func (s *ScriptedSource) Close() {
	s.once.Do(func() { close(s.events) })
}

// Run forwards scripted events to out.
func (s *ScriptedSource) Run(ctx context.Context, out chan<- domain.ForegroundEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.events:
			if !ok {
				return nil
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

var (
	_ domain.SettingsProvider = (*StaticSettings)(nil)
	_ domain.OverlayPresenter = (*RecordingPresenter)(nil)
	_ domain.HomeNavigator    = (*RecordingNavigator)(nil)
	_ domain.ForegroundSource = (*ScriptedSource)(nil)
)
