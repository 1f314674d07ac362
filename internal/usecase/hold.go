package usecase

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
	"github.com/eliteGoblin/focusd/app_lock/internal/policy"
)

// HoldConfig holds hold-to-unlock timing.
type HoldConfig struct {
	TickInterval    time.Duration // Countdown refresh while holding (~60 fps)
	CompletionGrace time.Duration // How long the completed screen stays up
	PressPulse      time.Duration // Haptic pulse on press
	CompletePulse   time.Duration // Haptic pulse on completion
}

// DefaultHoldConfig returns default hold timing.
func DefaultHoldConfig() HoldConfig {
	return HoldConfig{
		TickInterval:    16 * time.Millisecond,
		CompletionGrace: 200 * time.Millisecond,
		PressPulse:      50 * time.Millisecond,
		CompletePulse:   150 * time.Millisecond,
	}
}

// Clock returns the current time. Swapped out in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// HoldController is the state machine behind one block-screen session.
// All transitions, presenter calls and EnforcementState writes happen under mu.
type HoldController struct {
	mu        sync.Mutex
	cfg       HoldConfig
	session   domain.HoldSession
	presenter domain.OverlayPresenter
	navigator domain.HomeNavigator
	state     *EnforcementState
	clock     Clock
	logger    *zap.Logger

	gen        uint64        // Bumped on every press; stale ticks carry an old value
	stopTick   chan struct{} // Closed to stop the running tick source
	graceTimer *time.Timer
	finished   bool
	done       chan struct{}
}

// NewHoldController creates a controller in the idle state.
func NewHoldController(
	req domain.OverlayRequest,
	cfg HoldConfig,
	presenter domain.OverlayPresenter,
	navigator domain.HomeNavigator,
	state *EnforcementState,
	clock Clock,
	logger *zap.Logger,
) *HoldController {
	return &HoldController{
		cfg: cfg,
		session: domain.HoldSession{
			ID:                     req.SessionID,
			AppID:                  req.AppID,
			DisplayName:            req.DisplayName,
			RequiredDurationMillis: policy.DurationMillis(req.RequiredDurationSeconds),
			State:                  domain.StateIdle,
		},
		presenter: presenter,
		navigator: navigator,
		state:     state,
		clock:     clock,
		logger:    logger.With(zap.String("session", req.SessionID), zap.String("app", req.AppID)),
		done:      make(chan struct{}),
	}
}

// Session returns a copy of the session.
func (c *HoldController) Session() domain.HoldSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Done is closed once the session has been torn down.
func (c *HoldController) Done() <-chan struct{} {
	return c.done
}

// OnPressStart handles IDLE --press--> HOLDING.
func (c *HoldController) OnPressStart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.State != domain.StateIdle {
		return
	}

	now := c.clock.Now()
	c.session.State = domain.StateHolding
	c.session.StartTimestamp = &now
	c.gen++

	stop := make(chan struct{})
	c.stopTick = stop

	c.presenter.Vibrate(c.cfg.PressPulse)
	c.presenter.UpdateCountdown(RemainingSeconds(c.session.RequiredDurationMillis), 0)
	c.logger.Debug("hold started")

	go c.runTicker(c.gen, stop)
}

// OnPressEnd handles HOLDING --release--> CANCELLED --> IDLE.
func (c *HoldController) OnPressEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.State != domain.StateHolding {
		return
	}

	c.session.State = domain.StateCancelled
	c.stopTickerLocked()
	c.logger.Debug("hold cancelled before completion")

	c.session.State = domain.StateIdle
	c.session.StartTimestamp = nil
	c.presenter.UpdateCountdown(RemainingSeconds(c.session.RequiredDurationMillis), 0)
}

// OnExitRequested handles the exit action: the host goes home and the
// session tears down without unlocking. A pending completion grace is canceled.
func (c *HoldController) OnExitRequested() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return
	}

	switch c.session.State {
	case domain.StateIdle, domain.StateHolding:
		c.session.State = domain.StateDismissed
		c.stopTickerLocked()
		c.logger.Info("block screen dismissed, app stays locked")
	case domain.StateCompleted:
		// Already unlocked; only the grace delay is cut short.
		c.stopGraceLocked()
	}

	if err := c.navigator.GoHome(); err != nil {
		c.logger.Warn("failed to navigate home", zap.Error(err))
	}
	c.teardownLocked(true)
}

// Abort ends a session whose surface could not be created or failed later.
// Nothing is unlocked and the host is not navigated.
func (c *HoldController) Abort(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return
	}
	if !c.session.State.IsTerminal() {
		c.session.State = domain.StateDismissed
	}
	c.logger.Warn("hold session aborted", zap.Error(cause))
	c.teardownLocked(false)
}

func (c *HoldController) runTicker(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !c.tick(gen) {
				return
			}
		}
	}
}

// tick advances a holding session. A tick from an earlier press, or one that
// arrives after release/exit/teardown, is a no-op. Returns false once the
// tick source should stop.
func (c *HoldController) tick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.State != domain.StateHolding || gen != c.gen || c.session.StartTimestamp == nil {
		return false
	}

	required := c.session.RequiredDurationMillis
	elapsed := c.clock.Now().Sub(*c.session.StartTimestamp).Milliseconds()
	if elapsed >= required {
		c.completeLocked()
		return false
	}

	c.presenter.UpdateCountdown(RemainingSeconds(required-elapsed), Progress(elapsed, required))
	return true
}

// completeLocked handles HOLDING --elapsed >= required--> COMPLETED.
func (c *HoldController) completeLocked() {
	c.session.State = domain.StateCompleted
	c.stopTickerLocked()

	c.presenter.UpdateCountdown(0, 1)
	c.presenter.Vibrate(c.cfg.CompletePulse)
	c.state.MarkUnlocked(c.session.AppID)

	c.logger.Info("hold completed, app unlocked",
		zap.Int64("duration_ms", c.session.RequiredDurationMillis))

	c.graceTimer = time.AfterFunc(c.cfg.CompletionGrace, c.onGraceElapsed)
}

func (c *HoldController) onGraceElapsed() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return
	}
	c.teardownLocked(true)
}

func (c *HoldController) stopTickerLocked() {
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
}

func (c *HoldController) stopGraceLocked() {
	if c.graceTimer != nil {
		c.graceTimer.Stop()
		c.graceTimer = nil
	}
}

// teardownLocked runs exactly once per session. overlayActive is released
// even if the presenter panics.
func (c *HoldController) teardownLocked(presenterUp bool) {
	if c.finished {
		return
	}
	c.finished = true
	c.stopTickerLocked()
	c.stopGraceLocked()

	defer close(c.done)
	defer c.state.ReleaseOverlay()

	if presenterUp {
		c.presenter.Teardown()
	}
	c.logger.Debug("block screen torn down", zap.String("state", string(c.session.State)))
}

// RemainingSeconds is the displayed countdown: the ceiling of the remaining
// milliseconds in seconds, so a partial final second still shows 1.
func RemainingSeconds(remainingMillis int64) int64 {
	if remainingMillis <= 0 {
		return 0
	}
	return (remainingMillis + 999) / 1000
}

// Progress returns elapsed/required clamped to [0,1].
func Progress(elapsedMillis, requiredMillis int64) float64 {
	if requiredMillis <= 0 {
		return 1
	}
	p := float64(elapsedMillis) / float64(requiredMillis)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Ensure HoldController accepts presenter input.
var _ domain.HoldInput = (*HoldController)(nil)
